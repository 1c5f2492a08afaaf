package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/dmitrymomot/uikit/pkg/environment"
	"github.com/dmitrymomot/uikit/pkg/logger"
	"github.com/dmitrymomot/uikit/pkg/requestid"
)

// ErrorToastParams contains data for rendering error toasts.
type ErrorToastParams struct {
	Message   string
	Type      string // "error", "warning"
	RequestID string
}

// ErrorHandlerConfig configures NewErrorHandler.
type ErrorHandlerConfig struct {
	// ErrorToast renders the toast patched into DataStar pages. Without it
	// DataStar requests get a JSON error like any other request.
	ErrorToast func(ErrorToastParams) templ.Component

	// ToastTarget defaults to "#toast-container".
	ToastTarget string

	// ToastMode defaults to PatchPrepend.
	ToastMode datastar.ElementPatchMode
}

// ErrorInfo is the classification of an error.
type ErrorInfo struct {
	StatusCode int
	Key        string
	Type       string
	LogLevel   slog.Level
}

func classifyError(err error) ErrorInfo {
	info := ErrorInfo{StatusCode: http.StatusInternalServerError, Key: ErrInternalServerError.Key}
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		info.StatusCode = httpErr.Code
		info.Key = httpErr.Key
	}
	if info.StatusCode < http.StatusInternalServerError {
		info.Type, info.LogLevel = "warning", slog.LevelWarn
	} else {
		info.Type, info.LogLevel = "error", slog.LevelError
	}
	return info
}

// NewErrorHandler logs every error with the request id and renders it as a
// DataStar toast or a JSON error body. In production, server errors are
// rendered with their key only; the full error is still logged.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ToastTarget == "" {
		cfg.ToastTarget = "#toast-container"
	}
	if cfg.ToastMode == "" {
		cfg.ToastMode = PatchPrepend
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		id := requestid.FromContext(r.Context())
		info := classifyError(err)

		log.LogAttrs(r.Context(), info.LogLevel, "request error",
			logger.RequestID(id),
			logger.Error(err),
			slog.Int("status_code", info.StatusCode),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Bool("is_datastar", IsDataStar(r)),
			logger.Component("error_handler"),
		)

		public := err
		if info.StatusCode >= http.StatusInternalServerError && environment.IsProduction(r.Context()) {
			public = NewHTTPError(info.StatusCode, info.Key)
		}

		var resp Response = JSONError(public)
		if IsDataStar(r) && cfg.ErrorToast != nil {
			resp = Templ(cfg.ErrorToast(ErrorToastParams{
				Message:   public.Error(),
				Type:      info.Type,
				RequestID: id,
			}), WithTarget(cfg.ToastTarget), WithPatchMode(cfg.ToastMode))
		}
		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.Error("failed to render error",
				logger.RequestID(id),
				logger.Error(renderErr),
				logger.Event("render_error"),
			)
		}
	}
}

package uikit

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/uikit/handler"
	"github.com/dmitrymomot/uikit/pkg/action"
	"github.com/dmitrymomot/uikit/pkg/binder"
	"github.com/dmitrymomot/uikit/pkg/clientip"
	"github.com/dmitrymomot/uikit/pkg/environment"
	"github.com/dmitrymomot/uikit/pkg/httpserver"
	"github.com/dmitrymomot/uikit/pkg/ratelimiter"
	"github.com/dmitrymomot/uikit/pkg/render"
	"github.com/dmitrymomot/uikit/pkg/requestid"
	"github.com/dmitrymomot/uikit/pkg/server"
	"github.com/dmitrymomot/uikit/pkg/valueprovider"
)

// Router builds the HTTP routes of the application.
func (a *App) Router() chi.Router {
	errorHandler := handler.NewErrorHandler(a.logger, handler.ErrorHandlerConfig{ErrorToast: errorToast})

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		requestid.Middleware,
		clientip.Middleware,
		environment.Middleware(a.cfg.Environment()),
	)

	r.Get("/health/live", httpserver.HealthCheckHandler(a.logger))
	r.Get("/health/ready", httpserver.HealthCheckHandler(a.logger, a.ready))
	r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))

	r.Route("/aura", func(r chi.Router) {
		r.With(a.rateLimit).Post("/actions", handler.Wrap(a.handleActions,
			handler.WithBinders[server.Message](binder.JSON(
				binder.WithUseNumber(),
				binder.WithMaxSize(server.MaxMessageSize),
			)),
			handler.WithErrorHandler[server.Message](errorHandler),
		))
		r.Get("/browser", handler.Wrap(a.handleBrowser,
			handler.WithBinders[browserRequest](binder.Query()),
			handler.WithErrorHandler[browserRequest](errorHandler),
		))
		r.Get("/controllers", handler.Wrap(a.handleControllers,
			handler.WithErrorHandler[struct{}](errorHandler),
		))
		r.Get("/components/{ns}/{name}", handler.Wrap(a.handleComponent,
			handler.WithBinders[componentRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[componentRequest](errorHandler),
		))
	})
	return r
}

// rateLimit applies the action rate limit when one is configured.
func (a *App) rateLimit(next http.Handler) http.Handler {
	if a.limiter == nil {
		return next
	}
	return ratelimiter.Middleware(a.limiter, ratelimiter.ByClientIP, func(w http.ResponseWriter, r *http.Request, _ time.Duration) {
		a.metrics.Message("limited")
		_ = handler.JSONError(handler.ErrTooManyRequests).Render(w, r)
	})(next)
}

func (a *App) ready(context.Context) error {
	if len(a.registry.Controllers()) == 0 {
		return ErrNoControllers
	}
	return nil
}

// failure hands err to the error handler with its HTTP status attached.
type failure struct{ err error }

func (f failure) Render(http.ResponseWriter, *http.Request) error { return httpError(f.err) }

type actionsResponse struct {
	server  *server.Service
	actions []*action.Action
}

func (res actionsResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return res.server.Run(r.Context(), res.actions, w)
}

func (a *App) handleActions(ctx handler.Context, msg server.Message) handler.Response {
	if err := msg.Validate(); err != nil {
		a.metrics.Message("invalid")
		return failure{err}
	}
	actions, err := a.server.Decode(msg)
	if err != nil {
		a.metrics.Message("unresolved")
		return failure{err}
	}
	return actionsResponse{server: a.server, actions: actions}
}

type browserRequest struct {
	UserAgent string `query:"ua"`
	Key       string `query:"key"`
}

// handleBrowser returns the $Browser data of the caller, or of the ua query
// parameter when given.
func (a *App) handleBrowser(ctx handler.Context, req browserRequest) handler.Response {
	info := valueprovider.RequestInfoFrom(ctx.Request())
	if req.UserAgent != "" {
		info.UserAgent = req.UserAgent
	}
	data := valueprovider.NewBrowser(info).Data()
	if req.Key == "" {
		return handler.JSON(data)
	}
	key, ok := valueprovider.ParseBrowserKey(req.Key)
	if !ok {
		return failure{handler.NewHTTPError(http.StatusBadRequest, "unknown_browser_key")}
	}
	v, _ := data.Get(string(key))
	return handler.JSON(map[string]any{req.Key: v})
}

func (a *App) handleControllers(ctx handler.Context, _ struct{}) handler.Response {
	descs := a.registry.Controllers()
	defs := make([]*action.ControllerDef, 0, len(descs))
	for _, d := range descs {
		def, err := a.registry.Controller(d.QualifiedName())
		if err != nil {
			return failure{err}
		}
		defs = append(defs, def)
	}
	return handler.JSON(defs, handler.WithJSONMeta(map[string]any{"count": len(defs)}))
}

type componentRequest struct {
	Namespace string `path:"ns"`
	Name      string `path:"name"`
}

// handleComponent renders a component as HTML, or as a DataStar patch of
// its element.
func (a *App) handleComponent(ctx handler.Context, req componentRequest) handler.Response {
	inst, err := a.registry.Instance(ctx, req.Namespace+":"+req.Name)
	if err != nil {
		return failure{err}
	}
	values := valueprovider.ForRequest(ctx.Request(), nil, a.localeOpts)
	return handler.Templ(
		render.Component(inst.Component, values),
		handler.WithTarget("#"+render.ElementID(inst.Component)),
	)
}

func errorToast(p handler.ErrorToastParams) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div class="toast toast-`+templ.EscapeString(p.Type)+
			`" role="alert" data-request-id="`+templ.EscapeString(p.RequestID)+`">`+
			templ.EscapeString(p.Message)+`</div>`)
		return err
	})
}

package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/uikit/handler"
	"github.com/dmitrymomot/uikit/pkg/binder"
)

type greetRequest struct {
	Name string `json:"name"`
}

func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("binds and renders JSON", func(t *testing.T) {
		t.Parallel()

		h := handler.Wrap(func(ctx handler.Context, req greetRequest) handler.Response {
			return handler.JSON(map[string]string{"greeting": "hello " + req.Name})
		}, handler.WithBinders[greetRequest](binder.JSON()))

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ann"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":{"greeting":"hello ann"}}`, w.Body.String())
	})

	t.Run("skips binders that do not apply", func(t *testing.T) {
		t.Parallel()

		called := false
		h := handler.Wrap(func(ctx handler.Context, req greetRequest) handler.Response {
			called = true
			return handler.JSON("ok")
		}, handler.WithBinders[greetRequest](func(*http.Request, any) error {
			return binder.ErrBinderNotApplicable
		}))

		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.True(t, called)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bind errors map to client statuses", func(t *testing.T) {
		t.Parallel()

		var got error
		h := handler.Wrap(func(ctx handler.Context, req greetRequest) handler.Response {
			t.Fatal("handler must not run")
			return nil
		},
			handler.WithBinders[greetRequest](binder.JSON()),
			handler.WithErrorHandler[greetRequest](func(ctx handler.Context, err error) { got = err }),
		)

		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
		req.Header.Set("Content-Type", "application/json")
		h(httptest.NewRecorder(), req)
		require.Error(t, got)
		assert.ErrorIs(t, got, handler.ErrBadRequest)

		req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`name=ann`))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		h(httptest.NewRecorder(), req)
		assert.ErrorIs(t, got, handler.ErrUnsupportedMediaType)
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()

		h := handler.Wrap(func(ctx handler.Context, req greetRequest) handler.Response { return nil })
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), handler.ErrNilResponse.Error())
	})

	t.Run("default error handler uses HTTPError status", func(t *testing.T) {
		t.Parallel()

		h := handler.Wrap(func(ctx handler.Context, req greetRequest) handler.Response {
			return failing{err: handler.ErrNotFound}
		})
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "not_found")
	})

	t.Run("decorators run outermost first", func(t *testing.T) {
		t.Parallel()

		var order []string
		trace := func(name string) handler.Decorator[greetRequest] {
			return func(next handler.HandlerFunc[greetRequest]) handler.HandlerFunc[greetRequest] {
				return func(ctx handler.Context, req greetRequest) handler.Response {
					order = append(order, name)
					return next(ctx, req)
				}
			}
		}
		h := handler.Wrap(func(ctx handler.Context, req greetRequest) handler.Response {
			order = append(order, "handler")
			return handler.JSON(nil)
		}, handler.WithDecorators(trace("outer"), trace("inner")))

		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, []string{"outer", "inner", "handler"}, order)
	})
}

type failing struct{ err error }

func (f failing) Render(http.ResponseWriter, *http.Request) error { return f.err }

func TestContext(t *testing.T) {
	t.Parallel()

	type key struct{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), key{}, "v"))
	w := httptest.NewRecorder()

	ctx := handler.NewContext(w, req)
	assert.Equal(t, "v", ctx.Value(key{}))
	assert.Same(t, req, ctx.Request())
	assert.Nil(t, ctx.SSE())

	req.Header.Set("Accept", "text/event-stream")
	ctx = handler.NewContext(w, req)
	sse := ctx.SSE()
	require.NotNil(t, sse)
	assert.Same(t, sse, ctx.SSE())
}

func TestJSONResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		resp   handler.Response
		status int
		body   string
	}{
		{"data", handler.JSON([]int{1, 2}), http.StatusOK, `{"data":[1,2]}`},
		{"status and meta", handler.JSON("x", handler.WithJSONStatus(http.StatusCreated), handler.WithJSONMeta(map[string]any{"n": 1})), http.StatusCreated, `{"data":"x","meta":{"n":1}}`},
		{"raw", handler.RawJSON(map[string]int{"a": 1}), http.StatusOK, `{"a":1}`},
		{"http error", handler.JSONError(handler.ErrForbidden), http.StatusForbidden, `{"error":{"code":"forbidden","message":"forbidden"}}`},
		{"plain error", handler.JSON(errors.New("boom")), http.StatusInternalServerError, `{"error":{"code":"internal_server_error","message":"boom"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			require.NoError(t, tt.resp.Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestTempl(t *testing.T) {
	t.Parallel()

	t.Run("html", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		require.NoError(t, handler.Templ(text("<b>hi</b>")).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, "<b>hi</b>", w.Body.String())
	})

	t.Run("datastar patch", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept", "text/event-stream")
		w := httptest.NewRecorder()
		require.NoError(t, handler.Templ(text("<b id=\"x\">hi</b>"), handler.WithTarget("#x")).Render(w, req))
		assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "datastar-patch-elements")
		assert.Contains(t, w.Body.String(), "#x")
	})

	t.Run("partial", func(t *testing.T) {
		t.Parallel()

		resp := handler.TemplPartial(text("partial"), text("full page"))

		w := httptest.NewRecorder()
		require.NoError(t, resp.Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, "full page", w.Body.String())

		req := httptest.NewRequest(http.MethodGet, "/?datastar=%7B%7D", nil)
		w = httptest.NewRecorder()
		require.NoError(t, resp.Render(w, req))
		assert.Contains(t, w.Body.String(), "partial")
		assert.NotContains(t, w.Body.String(), "full page")
	})
}

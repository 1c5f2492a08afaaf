package binder

import (
	"fmt"
	"net/http"
	"net/url"
)

// Path creates a path parameter binder using extractor, for example
// chi.URLParam. Fields use `path:"name"`; `path:"-"` skips a field.
func Path(extractor func(r *http.Request, name string) string) func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if extractor == nil {
			return fmt.Errorf("%w: extractor function is nil", ErrInvalidPath)
		}
		return eachField(v, "path", ErrInvalidPath, func(name string) []string {
			if value := extractor(r, name); value != "" {
				return []string{value}
			}
			return nil
		})
	}
}

// Query creates a query string binder. Fields use `query:"name"`. A query
// string that does not parse, for example one with an unescaped ';', is
// rejected rather than partially bound.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		q, err := url.ParseQuery(r.URL.RawQuery)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
		}
		return eachField(v, "query", ErrInvalidQuery, func(name string) []string {
			return q[name]
		})
	}
}

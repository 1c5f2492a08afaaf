// Package binder fills request structs from HTTP requests.
//
// Each binder handles one source and its own struct tag:
//
//	type ComponentRequest struct {
//		Namespace string `path:"ns"`
//		Name      string `path:"name"`
//		UserAgent string `query:"ua"`
//	}
//
//	r.Get("/aura/components/{ns}/{name}", handler.Wrap(h,
//		handler.WithBinders[ComponentRequest](binder.Path(chi.URLParam), binder.Query()),
//	))
//
// JSON bodies are decoded strictly: unknown fields and trailing data are
// rejected and the body size is bounded.
package binder

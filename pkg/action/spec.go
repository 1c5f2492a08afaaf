package action

import (
	"context"
	"reflect"
)

// NoParams is the parameter type of actions that take no arguments.
type NoParams struct{}

// Spec declares one action of a controller. Build it with New or Exec.
type Spec struct {
	name       string
	params     reflect.Type
	returns    reflect.Type
	call       func(ctx context.Context, params any) (any, error)
	background bool
}

// Option tunes an action declaration.
type Option func(*Spec)

// Background marks the action as eligible to run concurrently with the other
// actions of the same request.
func Background() Option {
	return func(s *Spec) { s.background = true }
}

// New declares an action returning a value. P must be a struct whose exported
// fields carry a `param:"name[,loggable]"` tag.
//
//	action.New("sumValues", func(ctx context.Context, p SumParams) (int, error) {
//		return p.A + p.B, nil
//	})
func New[P, R any](name string, fn func(context.Context, P) (R, error), opts ...Option) Spec {
	s := Spec{
		name:    name,
		params:  reflect.TypeFor[P](),
		returns: reflect.TypeFor[R](),
		call: func(ctx context.Context, params any) (any, error) {
			return fn(ctx, params.(P))
		},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Exec declares an action without a return value.
func Exec[P any](name string, fn func(context.Context, P) error, opts ...Option) Spec {
	s := Spec{
		name:   name,
		params: reflect.TypeFor[P](),
		call: func(ctx context.Context, params any) (any, error) {
			return nil, fn(ctx, params.(P))
		},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s Spec) Name() string { return s.name }

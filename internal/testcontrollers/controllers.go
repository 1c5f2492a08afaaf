// Package testcontrollers holds controllers exercised by tests across packages.
package testcontrollers

import (
	"context"
	"errors"
	"strconv"

	"github.com/dmitrymomot/uikit/pkg/action"
)

// TestController has parameterless actions.
type TestController struct{}

func (TestController) Actions() []action.Spec {
	return []action.Spec{
		action.Exec("doSomething", func(context.Context, action.NoParams) error { return nil }),
		action.New("getString", func(context.Context, action.NoParams) (string, error) { return "TestController", nil }),
		action.New("throwException", func(context.Context, action.NoParams) (string, error) {
			return "", errors.New("intentionally generated")
		}),
		action.New("handledError", func(context.Context, action.NoParams) (string, error) {
			return "", action.NewHandledError("please retry")
		}),
	}
}

// Greeting is a plain method and never becomes an action.
func (TestController) Greeting() string { return "hello" }

// CustomParam has no converter from string registered.
type CustomParam struct {
	Value string
}

type customParams struct {
	A CustomParam `param:"a"`
}

type sumParams struct {
	A *int `param:"a"`
	B *int `param:"b"`
}

type appendParams struct {
	A *string `param:"a"`
	B *string `param:"b"`
}

// TestControllerWithParameters has actions taking typed parameters.
type TestControllerWithParameters struct{}

func (TestControllerWithParameters) Actions() []action.Spec {
	return []action.Spec{
		action.New("customParam", func(_ context.Context, p customParams) (string, error) { return p.A.Value, nil }),
		// Missing parameters stay nil and the dereference panics.
		action.New("sumValues", func(_ context.Context, p sumParams) (int, error) { return *p.A + *p.B, nil }),
		action.New("appendStrings", func(_ context.Context, p appendParams) (string, error) {
			return orNull(p.A) + orNull(p.B), nil
		}),
	}
}

func orNull(s *string) string {
	if s == nil {
		return "null"
	}
	return *s
}

type untagged struct {
	A int
}

// TestControllerMissingParamTag declares a parameter without a param tag.
type TestControllerMissingParamTag struct{}

func (TestControllerMissingParamTag) Actions() []action.Spec {
	return []action.Spec{
		action.New("missingTag", func(_ context.Context, p untagged) (int, error) { return p.A, nil }),
	}
}

// TestControllerWithDuplicateAction declares appendStrings twice.
type TestControllerWithDuplicateAction struct{}

func (TestControllerWithDuplicateAction) Actions() []action.Spec {
	fn := func(_ context.Context, p appendParams) (string, error) { return orNull(p.A) + orNull(p.B), nil }
	return []action.Spec{
		action.New("appendStrings", fn),
		action.New("appendStrings", fn),
	}
}

// TestControllerWithoutActions does not implement action.Controller.
type TestControllerWithoutActions struct{}

// ParallelActionTestController has one foreground and one background action.
type ParallelActionTestController struct{}

type waitParams struct {
	ID string `param:"id"`
}

func (ParallelActionTestController) Actions() []action.Spec {
	return []action.Spec{
		action.New("executeInForeground", func(_ context.Context, p waitParams) (string, error) { return "fg:" + p.ID, nil }),
		action.New("executeInBackground", func(_ context.Context, p waitParams) (string, error) {
			return "bg:" + p.ID, nil
		}, action.Background()),
	}
}

// CustomParamType logs through its String method.
type CustomParamType struct{}

func (CustomParamType) String() string { return "CustomParamType_toString" }

type loggableParams struct {
	Param any `param:"param,loggable"`
}

type stringParams struct {
	Param string `param:"param"`
}

type multiLoggable struct {
	We  string `param:"we,loggable"`
	Two string `param:"two,loggable"`
	Not string `param:"not"`
}

type strParams struct {
	StrParam string `param:"strparam,loggable"`
}

// LoggingTestController exercises loggable parameters.
type LoggingTestController struct{}

func (LoggingTestController) Actions() []action.Spec {
	return []action.Spec{
		action.New("getString", func(_ context.Context, p stringParams) (string, error) { return p.Param, nil }),
		action.New("getInt", func(_ context.Context, p struct {
			Param int `param:"param"`
		}) (int, error) {
			return p.Param, nil
		}),
		action.New("getLoggableString", func(_ context.Context, p loggableParams) (any, error) { return p.Param, nil }),
		action.New("getMultiParamLogging", func(_ context.Context, p multiLoggable) (string, error) { return p.We + p.Two, nil }),
		action.New("getStringWithLoggable", func(_ context.Context, p strParams) (string, error) { return p.StrParam, nil }),
	}
}

type addParams struct {
	A       int    `param:"a"`
	B       int    `param:"b"`
	Actions string `param:"actions"`
}

type multiplyParams struct {
	A int `param:"a"`
}

// ActionChainingController chains the actions listed in its "actions" parameter.
type ActionChainingController struct{}

func (ActionChainingController) Actions() []action.Spec {
	return []action.Spec{
		action.New("add", func(ctx context.Context, p addParams) (int, error) {
			if p.Actions != "" {
				if _, err := action.EnqueueJSON(ctx, p.Actions); err != nil {
					return 0, err
				}
			}
			return p.A + p.B, nil
		}),
		action.New("multiply", func(_ context.Context, p multiplyParams) (string, error) {
			return strconv.Itoa(p.A * 2), nil
		}),
	}
}

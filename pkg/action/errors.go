package action

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/uikit/pkg/convert"
	"github.com/dmitrymomot/uikit/pkg/descriptor"
)

// ParamError reports a parameter value that could not be coerced to the
// declared type.
type ParamError struct {
	Param string
	Type  descriptor.Descriptor
	Cause error
}

func (e *ParamError) Error() string {
	if errors.Is(e.Cause, convert.ErrNoConverter) {
		return fmt.Sprintf("error on parameter %s: %s", e.Param, e.Type)
	}
	return fmt.Sprintf("invalid value for %s: %s", e.Param, e.Type)
}

func (e *ParamError) Unwrap() error { return e.Cause }

// UnhandledError wraps an error or panic escaping an action, prefixed with the
// controller descriptor.
type UnhandledError struct {
	Controller descriptor.Descriptor
	Cause      error
}

func (e *UnhandledError) Error() string {
	return e.Controller.QualifiedName() + ": " + e.Cause.Error()
}

func (e *UnhandledError) Unwrap() error { return e.Cause }

// HandledError is an error an action reports deliberately. Its message is
// shown to clients unchanged.
type HandledError struct {
	Msg  string
	Data any
}

func NewHandledError(format string, args ...any) *HandledError {
	return &HandledError{Msg: fmt.Sprintf(format, args...)}
}

func (e *HandledError) Error() string { return e.Msg }

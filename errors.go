package uikit

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/uikit/handler"
	"github.com/dmitrymomot/uikit/pkg/descriptor"
	"github.com/dmitrymomot/uikit/pkg/server"
)

// ErrNoControllers is reported by the readiness probe before any controller
// is registered.
var ErrNoControllers = errors.New("uikit: no controllers registered")

// httpError attaches the HTTP status of a domain error.
func httpError(err error) error {
	var (
		notFound *descriptor.DefinitionNotFoundError
		noAccess *descriptor.NoAccessError
		invalid  *descriptor.InvalidDefinitionError
		httpErr  handler.HTTPError
	)
	switch {
	case err == nil, errors.As(err, &httpErr):
		return err
	case errors.As(err, &notFound):
		return fmt.Errorf("%w: %w", handler.ErrNotFound, err)
	case errors.As(err, &noAccess):
		return fmt.Errorf("%w: %w", handler.ErrForbidden, err)
	case errors.Is(err, server.ErrInvalidMessage), errors.Is(err, descriptor.ErrInvalidDescriptor):
		return fmt.Errorf("%w: %w", handler.ErrBadRequest, err)
	case errors.As(err, &invalid):
		return fmt.Errorf("%w: %w", handler.ErrInternalServerError, err)
	default:
		return err
	}
}

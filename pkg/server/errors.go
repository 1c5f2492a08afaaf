package server

import "errors"

var (
	// ErrInvalidMessage is returned for malformed action messages.
	ErrInvalidMessage = errors.New("server: invalid action message")
	// ErrChainTooDeep is recorded when chained actions exceed the configured depth.
	ErrChainTooDeep = errors.New("server: chained actions nested too deep")
)

package access

import "errors"

var (
	// ErrInvalidPattern is returned for malformed namespace or controller patterns.
	ErrInvalidPattern = errors.New("access: invalid pattern")
	// ErrInvalidPolicy is returned when a policy document cannot be decoded.
	ErrInvalidPolicy = errors.New("access: invalid policy")
)

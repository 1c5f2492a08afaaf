package definition

import "errors"

var (
	// ErrAlreadyRegistered is returned when a controller name is registered twice.
	ErrAlreadyRegistered = errors.New("definition: already registered")
	// ErrNotController is returned when a descriptor of another type is used as a controller name.
	ErrNotController = errors.New("definition: not a controller descriptor")
)

package app

import "errors"

// ErrNoSurface and related errors describe broken caller contracts.
var (
	ErrNoSurface    = errors.New("no drawing surface")
	ErrInvalidScale = errors.New("invalid device pixel scale")
)

package domain

import "errors"

var (
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidOwner     = errors.New("invalid owner")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrInvalidColor     = errors.New("invalid color")
)

package payment

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("invoice not found")
	ErrDuplicate         = errors.New("duplicate reference")
	ErrConflict          = errors.New("invoice was modified concurrently")
	ErrInvalidTransition = errors.New("invalid status transition")
)

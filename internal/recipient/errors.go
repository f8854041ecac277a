package recipient

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("recipient not found")
	ErrDuplicate  = errors.New("recipient already registered")
)

const (
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldAccountNumber = "accountNumber"
)

// DuplicateError names the unique field a recipient collided on. It matches
// ErrDuplicate with errors.Is.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	switch e.Field {
	case FieldEmail:
		return "Email address is already registered"
	case FieldPhone:
		return "Phone number is already registered"
	case FieldAccountNumber:
		return "Account number is already registered"
	default:
		return e.Field + " already exists"
	}
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

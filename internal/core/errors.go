package core

import (
	"errors"
	"fmt"
)

// Failure taxonomy shared by every layer. Stores and services return these
// (possibly wrapped); the HTTP layer classifies them with errors.Is/As.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// Validation causes.
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date, expected YYYY-MM-DD")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyCategory     = errors.New("empty category")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyEmail        = errors.New("empty email")
	ErrEmptyPassword     = errors.New("empty password")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrTooLong           = errors.New("value too long")
	ErrInvalidTheme      = errors.New("theme must be light or dark")
	ErrMissingOwner      = errors.New("missing owner")
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// ValidationError reports malformed or missing input for a single field.
type ValidationError struct {
	Field string
	Err   error
}

func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

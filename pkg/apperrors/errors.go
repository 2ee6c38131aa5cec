package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("invalid role")
	ErrLastAdmin          = errors.New("cannot remove last admin")
	ErrConnectionInUse    = errors.New("connection has dependent queries")
	ErrSecretsKeyMismatch = errors.New("connection secrets were encrypted with a different key")
	ErrValidation         = errors.New("validation failed")
	ErrUnsafeParameter    = errors.New("parameter value failed injection screening")
	ErrExecutionFailed    = errors.New("query execution failed")
)

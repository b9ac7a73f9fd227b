package auth

import "errors"

// Failure kinds every fallible auth operation resolves to. Handlers
// match these with errors.Is and map them onto the response envelope;
// anything else is a serverError.
var (
	ErrUserNotFound      = errors.New("userNotFound")
	ErrBadCredentials    = errors.New("badCredentials")
	ErrMissingToken      = errors.New("missingToken")
	ErrInvalidSignature  = errors.New("invalidSignature")
	ErrTokenExpired      = errors.New("tokenExpired")
	ErrTokenRevoked      = errors.New("tokenRevoked")
	ErrDuplicateUsername = errors.New("duplicateUsername")
	ErrValidation        = errors.New("validationError")
)

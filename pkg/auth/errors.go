package auth

import "errors"

var (
	// ErrValidation is returned when required input is missing or malformed.
	// Callers wrap it with the offending field for the message.
	ErrValidation = errors.New("invalid input")

	// ErrInvalidPassword is returned when the supplied password does not
	// match the stored hash
	ErrInvalidPassword = errors.New("invalid password")

	// ErrNotActivated is returned when a login is attempted against an
	// account that has not completed email activation
	ErrNotActivated = errors.New("account not activated")

	// ErrResetTokenNotFound is returned when no active persisted reset
	// token matches, including tokens already consumed
	ErrResetTokenNotFound = errors.New("reset token not found")
)

package users

import "errors"

var (
	// ErrNotFound indicates no user matches the given id, email or token.
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on any login mismatch. It never
	// reveals whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden indicates an ownership or current-password check failed.
	ErrForbidden = errors.New("access denied")

	// ErrValidation wraps client input errors (missing field, short password).
	ErrValidation = errors.New("validation failed")
)

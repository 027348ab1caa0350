// Package common defines constants and sentinel errors shared by the server
// layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("incorrect username or password")
	ErrorValidation   = errors.New("validation error")

	// Token errors. Every decode failure matches ErrInvalidToken.
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidTokenPolicy = errors.New("refresh token lifetime must exceed access token lifetime")

	// Session resolution errors.
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrCouldNotValidate = errors.New("could not validate credentials")
	ErrInactiveUser     = errors.New("inactive user")
	ErrForbidden        = errors.New("not enough permissions")
	ErrInvalidPassword  = errors.New("invalid password")
)

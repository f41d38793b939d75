package middleware

import (
	"errors"

	"github.com/Winter-Krimmert/Advanced-Blog-API/auth"
	"github.com/Winter-Krimmert/Advanced-Blog-API/utils"
)

// AuthError maps auth package errors to client-facing API errors. Unknown errors pass through.
func AuthError(err error) error {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return utils.ErrExpiredToken
	case errors.Is(err, auth.ErrTokenInvalid):
		return utils.ErrInvalidToken
	case errors.Is(err, auth.ErrMissingCredentials):
		return utils.ErrMissingCredentials
	case errors.Is(err, auth.ErrInvalidCredentials):
		return utils.ErrInvalidCredentials
	case errors.Is(err, auth.ErrNotOwner):
		return utils.ErrUnauthorized
	case errors.Is(err, auth.ErrUserNotFound):
		return utils.ErrUnknownSubject
	default:
		return err
	}
}

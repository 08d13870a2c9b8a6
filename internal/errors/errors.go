package errors

import (
	"errors"
	"fmt"
)

// Common error types for the BFF authentication broker
var (
	// Callback errors
	ErrInvalidCallback    = errors.New("invalid callback request")
	ErrTokenExchange      = errors.New("token exchange failed")
	ErrMissingTenantClaim = errors.New("tenant claim missing from identity token")
	ErrOnboarding         = errors.New("tenant onboarding failed")

	// Token errors
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenRefresh   = errors.New("token refresh failed")
	ErrIDTokenMissing = errors.New("id_token missing from token response")

	// Tenant errors
	ErrInvalidTenant     = errors.New("invalid tenant")
	ErrInvariantMismatch = errors.New("tenant record invariant mismatch")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// Secret errors
	ErrSecretNotFound = errors.New("secret not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

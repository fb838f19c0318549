package auth

import (
	"errors"
	"fmt"
)

// Provider error codes defined by RFC 8628 section 3.5.
const (
	ErrCodeAuthorizationPending = "authorization_pending"
	ErrCodeSlowDown             = "slow_down"
	ErrCodeAccessDenied         = "access_denied"
	ErrCodeExpiredToken         = "expired_token"
)

var (
	// ErrNotAuthenticated is returned when no credential is stored.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionExpired is returned when the stored credential is expired
	// (or within the safety margin of expiring) and cannot be refreshed.
	ErrSessionExpired = errors.New("session expired")
)

// ProviderError is a well-formed error response from the identity provider.
// Transport failures are not ProviderErrors; they surface as wrapped errors
// from the underlying HTTP client.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return e.Code
}

// Retryable reports whether the poll loop may continue after this error.
func (e *ProviderError) Retryable() bool {
	return e.Code == ErrCodeAuthorizationPending || e.Code == ErrCodeSlowDown
}

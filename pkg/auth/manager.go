package auth

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Manager gates commands on a usable credential and keeps it fresh.
type Manager struct {
	Store        Store
	SafetyMargin time.Duration
}

func (m *Manager) margin() time.Duration {
	if m.SafetyMargin > 0 {
		return m.SafetyMargin
	}
	return DefaultSafetyMargin
}

// RequireValidToken returns the stored record or an error telling the caller
// to run the login flow. Commands needing authentication must never proceed
// past an error from here.
func (m *Manager) RequireValidToken() (*Record, error) {
	rec := m.Store.Load()
	if rec == nil {
		return nil, ErrNotAuthenticated
	}
	if Expired(rec, m.margin()) {
		return nil, ErrSessionExpired
	}
	return rec, nil
}

// RefreshIfNeeded exchanges the refresh token for a new credential when the
// stored one is inside the safety margin. The refreshed record replaces the
// stored one wholesale; a failed save still returns the usable in-memory
// record together with the save error.
func (m *Manager) RefreshIfNeeded(ctx context.Context, oauthCfg oauth2.Config) (*Record, bool, error) {
	rec := m.Store.Load()
	if rec == nil {
		return nil, false, ErrNotAuthenticated
	}
	if !Expired(rec, m.margin()) {
		return rec, false, nil
	}
	if rec.RefreshToken == "" {
		return rec, false, ErrSessionExpired
	}
	token := &oauth2.Token{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		TokenType:    rec.TokenType,
	}
	if rec.ExpiresAt != nil {
		token.Expiry = *rec.ExpiresAt
	}
	refreshed, err := oauthCfg.TokenSource(ctx, token).Token()
	if err != nil {
		return rec, false, fmt.Errorf("failed to refresh token: %w", err)
	}
	updated := &Record{
		AccessToken:  refreshed.AccessToken,
		RefreshToken: refreshed.RefreshToken,
		TokenType:    refreshed.TokenType,
		Scope:        rec.Scope,
		CreatedAt:    time.Now(),
	}
	if updated.RefreshToken == "" {
		updated.RefreshToken = rec.RefreshToken
	}
	if updated.TokenType == "" {
		updated.TokenType = rec.TokenType
	}
	if !refreshed.Expiry.IsZero() {
		expiry := refreshed.Expiry
		updated.ExpiresAt = &expiry
	}
	if err := m.Store.Save(updated); err != nil {
		return updated, true, err
	}
	return updated, true, nil
}

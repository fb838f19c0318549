package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultSafetyMargin is the buffer subtracted from a credential's expiry:
// a token expiring within the margin is treated as already expired so that
// in-flight requests never race against expiry.
const DefaultSafetyMargin = 5 * time.Minute

// Record is the persisted credential. It is created whole on a successful
// token exchange and only ever replaced, never mutated field by field.
type Record struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	TokenType    string     `json:"token_type,omitempty"`
	Scope        string     `json:"scope,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Expired reports whether rec is unusable. A nil record or a record without
// an expiry is always expired; the provider omitting a lifetime forces
// re-authentication rather than granting a token that never expires.
func Expired(rec *Record, margin time.Duration) bool {
	if rec == nil || rec.ExpiresAt == nil {
		return true
	}
	return time.Until(*rec.ExpiresAt) < margin
}

// Store persists at most one credential record.
//
// Load treats missing, malformed, and unreadable state identically and
// returns nil; a corrupt token file is re-authenticated around, not fatal.
// Save failures are surfaced to the caller as warnings, never as a failed
// authentication.
type Store interface {
	Load() *Record
	Save(rec *Record) error
	Clear() error
}

// FileStore keeps the record as a JSON file under the user's config
// directory. Writes go through a temp file and rename so no reader ever
// observes a half-written record. There is no cross-process locking;
// concurrent invocations race with last-writer-wins semantics.
type FileStore struct {
	Path string
}

func (s *FileStore) Load() *Record {
	content, err := os.ReadFile(s.Path)
	if err != nil {
		return nil
	}
	var rec Record
	if err := json.Unmarshal(content, &rec); err != nil {
		return nil
	}
	if rec.AccessToken == "" {
		return nil
	}
	return &rec
}

func (s *FileStore) Save(rec *Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token dir: %w", err)
	}
	content, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}

func (s *FileStore) Clear() error {
	return os.Remove(s.Path)
}

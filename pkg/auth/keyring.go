package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/zalando/go-keyring"
)

const keyringUser = "token"

// KeyringStore keeps the record in the operating system keychain instead of
// a plain file. Selected with --token-storage=keychain.
type KeyringStore struct {
	Service string
}

func (s *KeyringStore) Load() *Record {
	data, err := keyring.Get(s.Service, keyringUser)
	if err != nil {
		return nil
	}
	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil
	}
	if rec.AccessToken == "" {
		return nil
	}
	return &rec
}

func (s *KeyringStore) Save(rec *Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	content, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := keyring.Set(s.Service, keyringUser, string(content)); err != nil {
		return fmt.Errorf("failed to store token in keychain: %w", err)
	}
	return nil
}

func (s *KeyringStore) Clear() error {
	err := keyring.Delete(s.Service, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return fs.ErrNotExist
	}
	return err
}

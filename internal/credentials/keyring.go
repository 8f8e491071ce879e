package credentials

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/appmechanic/driveconnect/internal/types"
	"github.com/zalando/go-keyring"
)

const keyringService = "driveconnect"

// KeyringUserStore is a UserStore backed by the system keyring. Used by
// the CLI so tokens never touch disk in plain text.
type KeyringUserStore struct {
	service string
}

// NewKeyringUserStore creates a keyring-backed user store
func NewKeyringUserStore() *KeyringUserStore {
	return &KeyringUserStore{service: keyringService}
}

// Available tests whether a system keyring is usable
func (s *KeyringUserStore) Available() bool {
	const probe = "driveconnect-probe"
	if err := keyring.Set(s.service, probe, "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(s.service, probe)
	return true
}

// GetUser returns the stored record, or nil when absent
func (s *KeyringUserStore) GetUser(ctx context.Context, userID string) (*types.UserRecord, error) {
	data, err := keyring.Get(s.service, userID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec types.UserRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveUser merges the given fields into the stored record
func (s *KeyringUserStore) SaveUser(ctx context.Context, userID string, fields UserFields) error {
	rec, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &types.UserRecord{UserID: userID}
	}

	if fields.CredentialBlob != nil {
		rec.CredentialBlob = fields.CredentialBlob
	}
	if fields.DefaultFolderID != nil {
		rec.DefaultFolderID = *fields.DefaultFolderID
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return keyring.Set(s.service, userID, string(data))
}

// Delete removes the user's record from the keyring
func (s *KeyringUserStore) Delete(userID string) error {
	err := keyring.Delete(s.service, userID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

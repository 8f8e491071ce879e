// Package credentials persists per-user OAuth credential fields and the
// user's default folder reference through the user/account collaborator.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appmechanic/driveconnect/internal/types"
	"github.com/appmechanic/driveconnect/internal/utils"
)

// UserFields is a partial update for a user record. Nil fields are
// left unchanged.
type UserFields struct {
	CredentialBlob  []byte
	DefaultFolderID *string
}

// UserStore is the user/account collaborator consumed by this core.
// A user owns exactly one credential record.
type UserStore interface {
	// GetUser returns the stored record, or nil when the user has no
	// record yet.
	GetUser(ctx context.Context, userID string) (*types.UserRecord, error)

	// SaveUser merges the given fields into the user's record,
	// creating it when absent.
	SaveUser(ctx context.Context, userID string, fields UserFields) error
}

// Fields is a partial credential update. Nil pointers are left
// unchanged; a nil Scopes slice is left unchanged.
type Fields struct {
	Connected         *bool
	AccountID         *string
	AccountEmail      *string
	Scopes            []string
	AccessToken       *string
	RefreshToken      *string
	TokenType         *string
	ExpiryEpochMillis *int64
}

// Store reads and writes Credential records through a UserStore
type Store struct {
	users UserStore
}

// NewStore creates a credential store over the user collaborator
func NewStore(users UserStore) *Store {
	return &Store{users: users}
}

// Load returns the user's credential. It fails with NOT_CONNECTED when
// the user has never completed a connect.
func (s *Store) Load(ctx context.Context, userID string) (*types.Credential, error) {
	rec, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil || len(rec.CredentialBlob) == 0 {
		return nil, notConnected(userID)
	}

	var cred types.Credential
	if err := json.Unmarshal(rec.CredentialBlob, &cred); err != nil {
		return nil, utils.NewOpError(utils.ErrCodeUnknown,
			fmt.Sprintf("corrupt credential record for user %s", userID)).WithCause(err).Err()
	}

	return &cred, nil
}

// Save merges the given fields into the user's credential. A present
// refresh token is never overwritten with an empty value: the refresh
// token is long-lived and only replaced when the provider rotates it.
func (s *Store) Save(ctx context.Context, userID string, fields Fields) error {
	cred := &types.Credential{}
	if rec, err := s.users.GetUser(ctx, userID); err != nil {
		return err
	} else if rec != nil && len(rec.CredentialBlob) > 0 {
		if err := json.Unmarshal(rec.CredentialBlob, cred); err != nil {
			return utils.NewOpError(utils.ErrCodeUnknown,
				fmt.Sprintf("corrupt credential record for user %s", userID)).WithCause(err).Err()
		}
	}

	merge(cred, fields)

	blob, err := json.Marshal(cred)
	if err != nil {
		return err
	}

	return s.users.SaveUser(ctx, userID, UserFields{CredentialBlob: blob})
}

// MarkDisconnected flips connected=false without erasing any other
// fields, so audit history (account id, email, scopes) survives.
func (s *Store) MarkDisconnected(ctx context.Context, userID string) error {
	connected := false
	return s.Save(ctx, userID, Fields{Connected: &connected})
}

// DefaultFolderID returns the user's default folder reference, or ""
// when unset.
func (s *Store) DefaultFolderID(ctx context.Context, userID string) (string, error) {
	rec, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", nil
	}
	return rec.DefaultFolderID, nil
}

// SetDefaultFolderID records the user's default folder reference
func (s *Store) SetDefaultFolderID(ctx context.Context, userID, folderID string) error {
	return s.users.SaveUser(ctx, userID, UserFields{DefaultFolderID: &folderID})
}

func merge(cred *types.Credential, fields Fields) {
	if fields.Connected != nil {
		cred.Connected = *fields.Connected
	}
	if fields.AccountID != nil {
		cred.AccountID = *fields.AccountID
	}
	if fields.AccountEmail != nil {
		cred.AccountEmail = *fields.AccountEmail
	}
	if fields.Scopes != nil {
		cred.Scopes = fields.Scopes
	}
	if fields.AccessToken != nil {
		cred.AccessToken = *fields.AccessToken
	}
	if fields.RefreshToken != nil && *fields.RefreshToken != "" {
		cred.RefreshToken = *fields.RefreshToken
	}
	if fields.TokenType != nil {
		cred.TokenType = *fields.TokenType
	}
	if fields.ExpiryEpochMillis != nil {
		cred.ExpiryEpochMillis = *fields.ExpiryEpochMillis
	}
}

func notConnected(userID string) error {
	return utils.NewOpError(utils.ErrCodeNotConnected,
		fmt.Sprintf("user %s has no connected account", userID)).Err()
}

// Ptr returns a pointer to v, for building partial Fields updates
func Ptr[T any](v T) *T {
	return &v
}

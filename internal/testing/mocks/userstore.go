package mocks

import (
	"context"
	"sync"

	"github.com/appmechanic/driveconnect/internal/credentials"
	"github.com/appmechanic/driveconnect/internal/types"
)

// FakeUserStore is an in-memory credentials.UserStore
type FakeUserStore struct {
	mu      sync.Mutex
	records map[string]*types.UserRecord

	// GetUserErr and SaveUserErr inject failures when non-nil
	GetUserErr  error
	SaveUserErr error

	// GetCalls counts GetUser invocations
	GetCalls int
	// SaveCalls counts SaveUser invocations
	SaveCalls int
}

// NewFakeUserStore creates an empty fake user store
func NewFakeUserStore() *FakeUserStore {
	return &FakeUserStore{records: make(map[string]*types.UserRecord)}
}

func (s *FakeUserStore) GetUser(ctx context.Context, userID string) (*types.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GetCalls++
	if s.GetUserErr != nil {
		return nil, s.GetUserErr
	}
	rec, ok := s.records[userID]
	if !ok {
		return nil, nil
	}
	copied := *rec
	copied.CredentialBlob = append([]byte(nil), rec.CredentialBlob...)
	return &copied, nil
}

func (s *FakeUserStore) SaveUser(ctx context.Context, userID string, fields credentials.UserFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SaveCalls++
	if s.SaveUserErr != nil {
		return s.SaveUserErr
	}
	rec, ok := s.records[userID]
	if !ok {
		rec = &types.UserRecord{UserID: userID}
		s.records[userID] = rec
	}
	if fields.CredentialBlob != nil {
		rec.CredentialBlob = append([]byte(nil), fields.CredentialBlob...)
	}
	if fields.DefaultFolderID != nil {
		rec.DefaultFolderID = *fields.DefaultFolderID
	}
	return nil
}

// Record returns the raw stored record, or nil
func (s *FakeUserStore) Record(userID string) *types.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[userID]
}

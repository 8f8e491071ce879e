package credentials

import (
	"context"
	"database/sql"
	"errors"

	"github.com/appmechanic/driveconnect/internal/types"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const userSchema = `
CREATE TABLE IF NOT EXISTS users (
	user_id           TEXT PRIMARY KEY,
	credential_blob   BLOB,
	default_folder_id TEXT NOT NULL DEFAULT '',
	updated_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

type userRow struct {
	UserID          string `db:"user_id"`
	CredentialBlob  []byte `db:"credential_blob"`
	DefaultFolderID string `db:"default_folder_id"`
}

// SQLiteUserStore is a UserStore backed by a local SQLite database.
// Suitable for single-node deployments and the CLI daemon.
type SQLiteUserStore struct {
	db *sqlx.DB
}

// OpenSQLiteUserStore opens (and migrates) the user database at path
func OpenSQLiteUserStore(path string) (*SQLiteUserStore, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(userSchema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteUserStore{db: db}, nil
}

// GetUser returns the stored record, or nil when absent
func (s *SQLiteUserStore) GetUser(ctx context.Context, userID string) (*types.UserRecord, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		`SELECT user_id, credential_blob, default_folder_id FROM users WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &types.UserRecord{
		UserID:          row.UserID,
		CredentialBlob:  row.CredentialBlob,
		DefaultFolderID: row.DefaultFolderID,
	}, nil
}

// SaveUser merges the given fields into the user's row, creating it
// when absent. Only set fields are written.
func (s *SQLiteUserStore) SaveUser(ctx context.Context, userID string, fields UserFields) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id) VALUES (?) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return err
	}

	if fields.CredentialBlob != nil {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE users SET credential_blob = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`,
			fields.CredentialBlob, userID); err != nil {
			return err
		}
	}
	if fields.DefaultFolderID != nil {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE users SET default_folder_id = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`,
			*fields.DefaultFolderID, userID); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the underlying database
func (s *SQLiteUserStore) Close() error {
	return s.db.Close()
}

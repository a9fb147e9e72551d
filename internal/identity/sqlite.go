package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// identityKey is the key the identifier is stored under.
const identityKey = "health_id"

// SQLiteSlot stores the identifier in a local SQLite key-value table, so a
// terminal client finds it again after a restart.
type SQLiteSlot struct {
	db  *sql.DB
	key string
}

// OpenSQLiteSlot opens (creating if needed) the SQLite file at path.
func OpenSQLiteSlot(ctx context.Context, path string) (*SQLiteSlot, error) {
	if path == "" {
		return nil, errors.New("identity db path is required")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open identity db: %w", err)
	}
	s, err := NewSQLiteSlot(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteSlot uses an already opened database and ensures the table exists.
func NewSQLiteSlot(ctx context.Context, db *sql.DB) (*SQLiteSlot, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS local_storage (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create local_storage table: %w", err)
	}
	return &SQLiteSlot{db: db, key: identityKey}, nil
}

func (s *SQLiteSlot) Load(ctx context.Context) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get local_storage[%s]: %w", s.key, err)
	}
	return value, true, nil
}

func (s *SQLiteSlot) Save(ctx context.Context, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_storage (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, s.key, value)
	if err != nil {
		return fmt.Errorf("failed to set local_storage[%s]: %w", s.key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}

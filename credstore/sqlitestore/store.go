// Package sqlitecredstore backs the credential store with a device-local
// SQLite file, the durable storage available to the mobile runtime.
package sqlitecredstore

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pratoapp/go-session-gateway/credstore"
	"github.com/pratoapp/go-session-gateway/internal/errors"
)

var _ credstore.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the credential database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS credentials (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", errors.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "[CredStore Get]")
	}
	return value, nil
}

func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO credentials (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().UnixMilli())
	return errors.Wrapf(err, "[CredStore Set]")
}

// Remove clears slots as independent deletes, not a transaction; a crash
// mid-sequence leaves some slots cleared, which callers already tolerate.
func (s *Store) Remove(keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.Exec(`DELETE FROM credentials WHERE key = ?`, key); err != nil {
			return errors.Wrapf(err, "[CredStore Remove]")
		}
	}
	return nil
}

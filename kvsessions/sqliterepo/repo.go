package sqlitekvrepo

import (
	"database/sql"
	"time"

	"github.com/pratoapp/go-session-gateway/internal/errors"
	"github.com/pratoapp/go-session-gateway/kvsessions"
)

var _ kvsessions.Repo = (*Repo)(nil)

// Repo persists KV session records in the shared edge SQLite database.
type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Put(key string, value []byte) error {
	_, err := r.db.Exec(`
		INSERT INTO kv_sessions (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC().UnixMilli())
	return errors.Wrapf(err, "[KVRepo Put]")
}

func (r *Repo) Get(key string) ([]byte, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM kv_sessions WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[KVRepo Get]")
	}
	return []byte(value), nil
}

func (r *Repo) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM kv_sessions WHERE key = ?`, key)
	return errors.Wrapf(err, "[KVRepo Delete]")
}

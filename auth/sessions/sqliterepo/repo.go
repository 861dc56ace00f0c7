package sqlitesessionrepo

import (
	"database/sql"
	"time"

	"github.com/pratoapp/go-session-gateway/auth/sessions"
	"github.com/pratoapp/go-session-gateway/internal/errors"
)

var _ sessions.Repo = (*Repo)(nil)

// Repo persists primary sessions in the shared edge SQLite database.
type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Upsert(sessionData *sessions.SessionData) error {
	_, err := r.db.Exec(`
		INSERT INTO auth_sessions (db_token, token, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(db_token) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			expires_at = excluded.expires_at`,
		sessionData.DBToken, sessionData.Token, sessionData.UserID,
		sessionData.ExpiresAt.UnixMilli(), sessionData.CreatedAt.UnixMilli())
	return errors.Wrapf(err, "[SessionRepo Upsert]")
}

func (r *Repo) Get(dbToken string) (*sessions.SessionData, error) {
	var (
		data                 sessions.SessionData
		expiresMs, createdMs int64
	)
	err := r.db.QueryRow(`
		SELECT db_token, token, user_id, expires_at, created_at
		FROM auth_sessions WHERE db_token = ?`, dbToken).
		Scan(&data.DBToken, &data.Token, &data.UserID, &expiresMs, &createdMs)
	if err == sql.ErrNoRows {
		return nil, errors.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[SessionRepo Get]")
	}
	data.ExpiresAt = time.UnixMilli(expiresMs).UTC()
	data.CreatedAt = time.UnixMilli(createdMs).UTC()
	return &data, nil
}

func (r *Repo) Delete(dbToken string) error {
	_, err := r.db.Exec(`DELETE FROM auth_sessions WHERE db_token = ?`, dbToken)
	return errors.Wrapf(err, "[SessionRepo Delete]")
}

func (r *Repo) DeleteExpiredSessions(expiryTime time.Time) error {
	_, err := r.db.Exec(`DELETE FROM auth_sessions WHERE expires_at < ?`, expiryTime.UnixMilli())
	return errors.Wrapf(err, "[SessionRepo DeleteExpiredSessions]")
}

package sqliteuserrepo

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/pratoapp/go-session-gateway/internal/errors"
	"github.com/pratoapp/go-session-gateway/users"
)

var _ users.Repo = (*Repo)(nil)

// Repo persists users in the shared edge SQLite database.
type Repo struct {
	db *sql.DB
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) Upsert(user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO users (id, email, name, image, password_hash, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			image = excluded.image,
			password_hash = excluded.password_hash,
			last_login = excluded.last_login`,
		user.ID, user.Email, user.Name, user.Image, user.PasswordHash,
		user.DateJoined.UnixMilli(), user.LastLogin.UnixMilli())
	return errors.Wrapf(err, "[UserRepo Upsert]")
}

func (r *Repo) Delete(email string) error {
	res, err := r.db.Exec(`DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		return errors.Wrapf(err, "[UserRepo Delete]")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

func (r *Repo) GetByEmail(email string) (*users.User, error) {
	return r.get(`SELECT id, email, name, image, password_hash, created_at, last_login FROM users WHERE email = ?`, email)
}

func (r *Repo) GetByID(id string) (*users.User, error) {
	return r.get(`SELECT id, email, name, image, password_hash, created_at, last_login FROM users WHERE id = ?`, id)
}

func (r *Repo) get(query, arg string) (*users.User, error) {
	var (
		u                  users.User
		createdMs, loginMs int64
	)
	err := r.db.QueryRow(query, arg).Scan(&u.ID, &u.Email, &u.Name, &u.Image, &u.PasswordHash, &createdMs, &loginMs)
	if err == sql.ErrNoRows {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[UserRepo get]")
	}
	u.DateJoined = time.UnixMilli(createdMs).UTC()
	if loginMs > 0 {
		u.LastLogin = time.UnixMilli(loginMs).UTC()
	}
	return &u, nil
}

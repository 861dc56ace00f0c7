package fakesessionrepo

import (
	"sync"
	"time"

	"github.com/pratoapp/go-session-gateway/auth/sessions"
	"github.com/pratoapp/go-session-gateway/internal/errors"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	sessions map[string]*sessions.SessionData
	lock     sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]*sessions.SessionData),
	}
}

func (sr *FakeSessionRepo) Upsert(sessionData *sessions.SessionData) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.sessions[sessionData.DBToken] = sessionData
	return nil
}

func (sr *FakeSessionRepo) Get(dbToken string) (*sessions.SessionData, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	session, ok := sr.sessions[dbToken]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	return session, nil
}

func (sr *FakeSessionRepo) Delete(dbToken string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	delete(sr.sessions, dbToken)
	return nil
}

func (sr *FakeSessionRepo) DeleteExpiredSessions(expiryTime time.Time) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	for dbToken, session := range sr.sessions {
		if session.ExpiresAt.Before(expiryTime) {
			delete(sr.sessions, dbToken)
		}
	}
	return nil
}

// Len reports how many sessions the fake holds. Test helper.
func (sr *FakeSessionRepo) Len() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return len(sr.sessions)
}

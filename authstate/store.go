// Package authstate is the single authentication state container the client
// UI reads. It is written by three independent asynchronous flows (resolver
// passes, explicit sign-in/out, handshake completion); the guarded write
// methods are the only sanctioned mutators and enforce the rule that a
// confirmed primary or email result is never downgraded by a fallback
// result arriving later.
package authstate

import (
	"sync"

	"github.com/pratoapp/go-session-gateway/sessions"
)

// State is a point-in-time snapshot of the authentication state.
type State struct {
	User            *sessions.User
	IsAuthenticated bool
	IsLoading       bool
	Err             string
	LoginType       sessions.LoginType
}

// Store holds the mutable authentication state. Readers get copies; writers
// go through the mutator methods below.
type Store struct {
	lock  sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.lock.RLock()
	defer s.lock.RUnlock()

	state := s.state
	if state.User != nil {
		user := *state.User
		state.User = &user
	}
	return state
}

// SetUser records a confirmed authentication result. Confirmed writers
// always win, so this overwrites unconditionally.
func (s *Store) SetUser(user *sessions.User, loginType sessions.LoginType) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.state.User = user
	s.state.IsAuthenticated = user != nil
	s.state.LoginType = loginType
	s.state.Err = ""
	if user == nil {
		s.state.LoginType = sessions.LoginNone
	}
}

// SetUserFromFallback records a fallback-derived result, unless the store is
// already authenticated. A confirmed session always beats an unconfirmed
// fallback completing later; the check and the write happen under one lock
// so the compare-and-set cannot interleave with another writer.
func (s *Store) SetUserFromFallback(user *sessions.User, loginType sessions.LoginType) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state.IsAuthenticated {
		return false
	}
	s.state.User = user
	s.state.IsAuthenticated = user != nil
	s.state.LoginType = loginType
	s.state.Err = ""
	return true
}

// Clear resets the store to the anonymous state.
func (s *Store) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.state = State{}
}

// SetLoading flips the loading flag, clearing any stale error when a new
// asynchronous flow starts.
func (s *Store) SetLoading(loading bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.state.IsLoading = loading
	if loading {
		s.state.Err = ""
	}
}

// SetError records a failure without touching the authentication flags.
func (s *Store) SetError(message string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.state.Err = message
}

package authstate

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/pratoapp/go-session-gateway/credstore"
	"github.com/pratoapp/go-session-gateway/internal/errors"
	"github.com/pratoapp/go-session-gateway/kvsessions"
	"github.com/pratoapp/go-session-gateway/resolver"
	"github.com/pratoapp/go-session-gateway/sessions"
)

// PrimaryAuth is the primary session library's mutation surface as seen
// from the client.
type PrimaryAuth interface {
	SignIn(ctx context.Context, email, password string) (*sessions.Account, error)
	SignUp(ctx context.Context, email, password, name string) (*sessions.Account, error)
	SignOut(ctx context.Context) error
}

// KVLookup reads the edge's fallback session records.
type KVLookup interface {
	KVSession(ctx context.Context, dbToken string) (*kvsessions.Record, error)
}

// SessionDeleter removes a session row on the edge by its raw token.
type SessionDeleter interface {
	DeleteSession(ctx context.Context, sessionToken string) error
}

// SessionResolver produces the current session-or-none decision.
type SessionResolver interface {
	Resolve(ctx context.Context) *resolver.Resolution
}

// Service owns the Store and performs every flow that mutates it: resolver
// mirroring, email sign-in/up, and the sign-out dispatch.
type Service struct {
	store    *Store
	auth     PrimaryAuth
	resolver SessionResolver
	kv       KVLookup
	deleter  SessionDeleter
	creds    credstore.Store
}

// NewService wires the state service. All dependencies are required.
func NewService(store *Store, auth PrimaryAuth, sessionResolver SessionResolver, kv KVLookup, deleter SessionDeleter, creds credstore.Store) (*Service, error) {
	if store == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[NewService] store is required")
	}
	if auth == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[NewService] primary auth is required")
	}
	if sessionResolver == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[NewService] resolver is required")
	}
	if kv == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[NewService] kv lookup is required")
	}
	if deleter == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[NewService] session deleter is required")
	}
	if creds == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[NewService] credential store is required")
	}
	return &Service{
		store:    store,
		auth:     auth,
		resolver: sessionResolver,
		kv:       kv,
		deleter:  deleter,
		creds:    creds,
	}, nil
}

// Store exposes the state container for readers.
func (s *Service) Store() *Store {
	return s.store
}

// CheckAuth runs the resolver and mirrors its result into the store. A
// resolution failure never propagates; the store simply ends anonymous.
func (s *Service) CheckAuth(ctx context.Context) {
	s.store.SetLoading(true)
	defer s.store.SetLoading(false)

	resolution := s.resolver.Resolve(ctx)
	if resolution == nil {
		s.store.SetUser(nil, sessions.LoginNone)
		return
	}

	if resolution.Session.Source == sessions.SourceFallback {
		s.applyFallback(ctx, resolution.Session.Token)
		return
	}
	// Dev and primary resolutions carry a confirmed identity; primary
	// sessions only exist for cookie-based email logins.
	s.store.SetUser(resolution.User, sessions.LoginEmail)
}

// applyFallback resolves the owner of a fallback token from the edge KV
// record. The token itself carries no identity, so a missing record means
// the token is dead and the store stays anonymous. Both outcomes are
// fallback-derived writes and go through the guarded path: a sign-in
// confirmed while the lookup was in flight must not be displaced, whether
// the lookup succeeded or failed.
func (s *Service) applyFallback(ctx context.Context, token string) {
	record, err := s.kv.KVSession(ctx, sessions.DBToken(token))
	if err != nil {
		log.Debug().Err(err).Msg("fallback token has no KV record, treating as anonymous")
		s.store.SetUserFromFallback(nil, sessions.LoginNone)
		return
	}

	user := record.User
	if !s.store.SetUserFromFallback(&user, sessions.LoginGoogle) {
		log.Debug().Msg("fallback resolution discarded, store already authenticated")
	}
}

// SignIn authenticates through the primary library. On failure the error is
// recorded and re-thrown so the caller can prompt; authentication flags are
// left untouched.
func (s *Service) SignIn(ctx context.Context, email, password string) error {
	s.store.SetLoading(true)
	defer s.store.SetLoading(false)

	account, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		s.store.SetError(err.Error())
		return err
	}
	return s.applyEmailLogin(account)
}

// SignUp registers through the primary library and signs the new user in.
func (s *Service) SignUp(ctx context.Context, email, password, name string) error {
	s.store.SetLoading(true)
	defer s.store.SetLoading(false)

	account, err := s.auth.SignUp(ctx, email, password, name)
	if err != nil {
		s.store.SetError(err.Error())
		return err
	}
	return s.applyEmailLogin(account)
}

func (s *Service) applyEmailLogin(account *sessions.Account) error {
	if account == nil {
		err := errors.Wrapf(errors.ErrInternal, "[applyEmailLogin] primary library returned no account and no error")
		s.store.SetError(err.Error())
		return err
	}
	if err := s.creds.Set(credstore.KeySessionToken, account.Session.Token); err != nil {
		log.Warn().Err(err).Msg("failed to persist session token")
	}
	user := account.User
	s.store.SetUser(&user, sessions.LoginEmail)
	return nil
}

// SignOut dispatches on how the user logged in. Google sessions need the
// manual deletion path because the primary library cannot see the session
// cookie from the mobile runtime. Local state always ends clean on the
// manual path, whatever the network does.
func (s *Service) SignOut(ctx context.Context) error {
	state := s.store.Snapshot()
	if state.LoginType == sessions.LoginGoogle {
		return s.manualSignOut(ctx)
	}

	if err := s.auth.SignOut(ctx); err != nil {
		s.store.SetError(err.Error())
		s.clearCredentials()
		return err
	}
	s.clearCredentials()
	s.store.Clear()
	return nil
}

// manualSignOut deletes the edge session row by token, then clears every
// credential slot and the state. The deletion failure is informational
// only; local cleanup proceeds regardless.
func (s *Service) manualSignOut(ctx context.Context) error {
	var remoteErr error
	if token := s.storedToken(); token != "" {
		if err := s.deleter.DeleteSession(ctx, token); err != nil {
			log.Warn().Err(err).Msg("remote session deletion failed, clearing local state anyway")
			remoteErr = errors.Wrapf(errors.ErrRemoteSignOutFailure, "[SignOut] %s", err.Error())
		}
	}

	s.clearCredentials()
	s.store.Clear()
	return remoteErr
}

func (s *Service) storedToken() string {
	for _, key := range []string{credstore.KeyGoogleSession, credstore.KeySessionToken, credstore.KeyLegacyCookie} {
		if token, err := s.creds.Get(key); err == nil && token != "" {
			return token
		}
	}
	return ""
}

func (s *Service) clearCredentials() {
	if err := s.creds.Remove(credstore.AllKeys...); err != nil {
		log.Warn().Err(err).Msg("failed to clear credential store")
	}
}

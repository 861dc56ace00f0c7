// Package auth is the primary session library for the edge service. It
// issues and verifies opaque <dbToken>.<signature> session tokens, keeps the
// authoritative session records, and mirrors every session into the KV
// record store so token-only callers can still be resolved.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	sessrepo "github.com/pratoapp/go-session-gateway/auth/sessions"
	"github.com/pratoapp/go-session-gateway/internal/errors"
	"github.com/pratoapp/go-session-gateway/kvsessions"
	"github.com/pratoapp/go-session-gateway/sessions"
	"github.com/pratoapp/go-session-gateway/users"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users    users.Repo      // Repository for user accounts
	Sessions sessrepo.Repo   // Repository for primary session records
	KV       kvsessions.Repo // Raw KV mirror of session records
}

// Service provides email/password and social sign-in, session issuance and
// lookup, and sign-out.
type Service struct {
	repos         Repos
	provider      IdentityProvider
	secret        []byte
	cookieName    string
	sessionExpiry time.Duration
	stateExpiry   time.Duration
	nowTime       func() time.Time // nowTime function (injectable for testing)
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithSessionExpiry overrides the default session lifetime.
func WithSessionExpiry(expiry time.Duration) ServiceOption {
	return func(s *Service) {
		s.sessionExpiry = expiry
	}
}

// WithProvider sets the identity provider used for social sign-in.
func WithProvider(provider IdentityProvider) ServiceOption {
	return func(s *Service) {
		s.provider = provider
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, secret, cookieName string, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[NewService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[NewService] Sessions repo is required")
	}
	if repos.KV == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[NewService] KV repo is required")
	}
	if secret == "" {
		return nil, errors.Wrapf(errors.ErrInternal, "[NewService] session secret is required")
	}

	service := &Service{
		repos:         repos,
		secret:        []byte(secret),
		cookieName:    cookieName,
		sessionExpiry: 7 * 24 * time.Hour,
		stateExpiry:   15 * time.Minute,
		nowTime:       time.Now,
	}

	for _, opt := range options {
		opt(service)
	}

	return service, nil
}

// CookieName returns the name the service issues its session cookie under.
func (s *Service) CookieName() string {
	return s.cookieName
}

// SignIn authenticates an email/password pair and issues a fresh session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*sessions.Account, error) {
	if err := users.ValidateEmail(email); err != nil {
		return nil, errors.Wrapf(InvalidCredentialsErr, "[SignIn] %s", err.Error())
	}

	user, err := s.repos.Users.GetByEmail(email)
	if err != nil {
		// Same error for unknown user and bad password
		return nil, InvalidCredentialsErr
	}
	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, InvalidCredentialsErr
	}

	user.LastLogin = s.nowTime().UTC()
	if err := s.repos.Users.Upsert(user); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}

	return s.createSession(user)
}

// SignUp registers a new user and signs them in.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (*sessions.Account, error) {
	if err := users.ValidateEmail(email); err != nil {
		return nil, errors.Wrapf(err, "[SignUp]")
	}
	if err := users.ValidatePasswordStrength(password); err != nil {
		return nil, errors.Wrapf(err, "[SignUp]")
	}
	if existing, err := s.repos.Users.GetByEmail(email); err == nil && existing != nil {
		return nil, UserExistsErr
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, errors.Wrapf(err, "[SignUp] hash password")
	}

	user := &users.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		DateJoined:   s.nowTime().UTC(),
	}
	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, errors.Wrapf(err, "[SignUp] upsert user")
	}

	return s.createSession(user)
}

// SignOut revokes the session a token refers to. Revoking an unknown or
// already-revoked token is not an error.
func (s *Service) SignOut(ctx context.Context, token string) error {
	dbToken, err := verifyToken(s.secret, token)
	if err != nil {
		// Still clear any record stored under the raw value; legacy tokens
		// were unsigned.
		dbToken = sessions.DBToken(token)
	}
	if dbToken == "" {
		return nil
	}

	if err := s.repos.Sessions.Delete(dbToken); err != nil {
		return errors.Wrapf(err, "[SignOut] delete session")
	}
	s.deleteKVMirror(dbToken)
	return nil
}

// PurgeExpiredSessions removes primary session records whose expiry has
// passed. KV mirrors are left to read-time expiry checks; their keys are
// not recoverable from the expired rows.
func (s *Service) PurgeExpiredSessions() error {
	return errors.Wrapf(s.repos.Sessions.DeleteExpiredSessions(s.nowTime().UTC()), "[PurgeExpiredSessions]")
}

// GetSession resolves the caller from request headers: the session cookie
// first, then a bearer token. Returns ErrSessionNotFound when no usable
// credential is present.
func (s *Service) GetSession(ctx context.Context, header http.Header) (*sessions.Account, error) {
	token := s.tokenFromHeader(header)
	if token == "" {
		return nil, errors.ErrSessionNotFound
	}
	return s.GetSessionFromToken(ctx, token)
}

// GetSessionFromToken resolves a session from a bare token, verifying the
// signature, record presence, exact token match, and expiry.
func (s *Service) GetSessionFromToken(ctx context.Context, token string) (*sessions.Account, error) {
	dbToken, err := verifyToken(s.secret, token)
	if err != nil {
		return nil, err
	}

	record, err := s.repos.Sessions.Get(dbToken)
	if err != nil {
		return nil, errors.ErrSessionNotFound
	}
	if record.Token != token {
		return nil, InvalidTokenErr
	}
	if !record.ExpiresAt.After(s.nowTime()) {
		return nil, SessionExpiredErr
	}

	user, err := s.repos.Users.GetByID(record.UserID)
	if err != nil {
		return nil, errors.Wrapf(err, "[GetSessionFromToken] user lookup")
	}

	return &sessions.Account{
		User: user.Identity(),
		Session: sessions.Session{
			Token:     record.Token,
			UserID:    record.UserID,
			ExpiresAt: record.ExpiresAt,
			Source:    sessions.SourcePrimary,
		},
	}, nil
}

// AuthorizeURL starts a social sign-in flow. callbackURL is where the
// provider callback ultimately redirects the user agent, typically the
// app's custom-scheme deep link.
func (s *Service) AuthorizeURL(callbackURL string) (string, error) {
	if s.provider == nil {
		return "", errors.Wrapf(errors.ErrInternal, "[AuthorizeURL] no identity provider configured")
	}
	state, err := s.signState(callbackURL)
	if err != nil {
		return "", errors.Wrapf(err, "[AuthorizeURL] sign state")
	}
	return s.provider.AuthCodeURL(state), nil
}

// CompleteOAuth finishes a social sign-in: verifies the state, exchanges the
// code, upserts the user, and issues a session. Returns the account and the
// callback URL recovered from the state.
func (s *Service) CompleteOAuth(ctx context.Context, code, state string) (*sessions.Account, string, error) {
	callbackURL, err := s.verifyState(state)
	if err != nil {
		return nil, "", err
	}
	if s.provider == nil {
		return nil, "", errors.Wrapf(errors.ErrInternal, "[CompleteOAuth] no identity provider configured")
	}

	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, "", errors.Wrapf(err, "[CompleteOAuth] exchange")
	}

	user, err := s.repos.Users.GetByEmail(identity.Email)
	if err != nil {
		user = &users.User{
			ID:         uuid.New().String(),
			Email:      identity.Email,
			DateJoined: s.nowTime().UTC(),
		}
	}
	user.Name = identity.Name
	user.Image = identity.Picture
	user.LastLogin = s.nowTime().UTC()
	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, "", errors.Wrapf(err, "[CompleteOAuth] upsert user")
	}

	account, err := s.createSession(user)
	if err != nil {
		return nil, "", err
	}
	return account, callbackURL, nil
}

// createSession issues a token, stores the primary record, and mirrors it
// into the KV store under the current key encoding.
func (s *Service) createSession(user *users.User) (*sessions.Account, error) {
	token, dbToken := mintToken(s.secret)
	now := s.nowTime().UTC()

	record := &sessrepo.SessionData{
		DBToken:   dbToken,
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionExpiry),
		CreatedAt: now,
	}
	if err := s.repos.Sessions.Upsert(record); err != nil {
		return nil, errors.Wrapf(err, "[createSession] upsert")
	}

	account := &sessions.Account{
		User: user.Identity(),
		Session: sessions.Session{
			Token:     token,
			UserID:    user.ID,
			ExpiresAt: record.ExpiresAt,
			Source:    sessions.SourcePrimary,
		},
	}

	mirror := kvsessions.Record{User: account.User, Session: account.Session}
	if data, err := mirror.Marshal(); err == nil {
		if err := s.repos.KV.Put(kvsessions.Key(dbToken), data); err != nil {
			log.Warn().Err(err).Str("db_token", dbToken).Msg("failed to mirror session to KV")
		}
	}

	return account, nil
}

func (s *Service) deleteKVMirror(dbToken string) {
	for _, key := range []string{kvsessions.Key(dbToken), kvsessions.LegacyKey(dbToken)} {
		if err := s.repos.KV.Delete(key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to delete KV session record")
		}
	}
}

func (s *Service) tokenFromHeader(header http.Header) string {
	if cookieHeader := header.Get("Cookie"); cookieHeader != "" {
		request := http.Request{Header: http.Header{"Cookie": []string{cookieHeader}}}
		if cookie, err := request.Cookie(s.cookieName); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	authHeader := header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[len("bearer "):])
	}
	return ""
}

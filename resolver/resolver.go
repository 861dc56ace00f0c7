// Package resolver decides, at any moment, whether the client holds a usable
// session and from which credential path it came. Sources are tried in a
// fixed priority order and the first match wins; resolution never fails, it
// only degrades to "no session".
package resolver

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pratoapp/go-session-gateway/credstore"
	"github.com/pratoapp/go-session-gateway/internal/devmode"
	"github.com/pratoapp/go-session-gateway/sessions"
)

const (
	// DevToken is the fixed credential returned by the developer bypass.
	DevToken  = "dev-session-0000"
	devUserID = "dev-user-id"

	// fallbackExpiry bounds a session synthesized from the stored fallback
	// token. The token's real expiry lives on the edge and is not locally
	// knowable, so a conservative window forces periodic re-resolution.
	fallbackExpiry = 24 * time.Hour
)

// PrimarySource is the primary session library's lookup surface as seen from
// the client.
type PrimarySource interface {
	GetSession(ctx context.Context) (*sessions.Account, error)
}

// Resolution is a resolved session plus whatever identity the winning source
// could supply. User is nil for fallback resolutions: the fallback token
// carries no identity, and the owner must be recovered from the edge KV
// record rather than guessed.
type Resolution struct {
	Session sessions.Session
	User    *sessions.User
}

// Resolver produces a single authoritative session-or-none decision.
type Resolver struct {
	primary    PrimarySource
	creds      credstore.Store
	devBuild   bool             // compile-time development flag
	devEnabled func() bool      // developer toggle, read fresh each pass
	nowTime    func() time.Time // nowTime function (injectable for testing)
}

// ResolverOption defines a function type to modify the Resolver instance.
type ResolverOption func(*Resolver)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.nowTime = nowFunc
	}
}

// WithDevToggle sets the developer-bypass toggle. It is only consulted in
// development builds; production builds never reach it.
func WithDevToggle(toggle func() bool) ResolverOption {
	return func(r *Resolver) {
		r.devEnabled = toggle
	}
}

// WithDevBuild overrides the compile-time development flag (testing only).
func WithDevBuild(enabled bool) ResolverOption {
	return func(r *Resolver) {
		r.devBuild = enabled
	}
}

// New creates a Resolver over the primary session source and the device
// credential store.
func New(primary PrimarySource, creds credstore.Store, options ...ResolverOption) *Resolver {
	resolver := &Resolver{
		primary:    primary,
		creds:      creds,
		devBuild:   devmode.Enabled,
		devEnabled: func() bool { return false },
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(resolver)
	}
	return resolver
}

// Resolve tries each credential source in priority order and returns the
// first usable session, or nil when no source produces one. It is
// side-effect free apart from reads of storage and the primary library.
func (r *Resolver) Resolve(ctx context.Context) *Resolution {
	if resolution := r.resolveDev(); resolution != nil {
		return resolution
	}
	if resolution := r.resolvePrimary(ctx); resolution != nil {
		return resolution
	}
	return r.resolveFallback()
}

// resolveDev returns the synthetic developer session when the build is a
// development build and the toggle is on. Enabled is a compile-time
// constant, so production builds eliminate this branch entirely.
func (r *Resolver) resolveDev() *Resolution {
	if !r.devBuild || !r.devEnabled() {
		return nil
	}
	return &Resolution{
		Session: sessions.Session{
			Token:     DevToken,
			UserID:    devUserID,
			ExpiresAt: r.nowTime().AddDate(10, 0, 0),
			Source:    sessions.SourceDev,
		},
		User: &sessions.User{ID: devUserID, Email: "dev@localhost", Name: "Dev User"},
	}
}

// resolvePrimary consults the primary session library. Any error is treated
// as "no primary session" so resolution can fall through to the stored
// fallback token instead of propagating.
func (r *Resolver) resolvePrimary(ctx context.Context) *Resolution {
	account, err := r.primary.GetSession(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("primary session lookup failed, falling through")
		return nil
	}
	if account == nil || account.Session.Token == "" {
		return nil
	}

	session := account.Session
	session.Source = sessions.SourcePrimary
	user := account.User
	return &Resolution{Session: session, User: &user}
}

// resolveFallback synthesizes a session from the stored fallback token.
func (r *Resolver) resolveFallback() *Resolution {
	token, err := r.creds.Get(credstore.KeyGoogleSession)
	if err != nil || token == "" {
		return nil
	}
	return &Resolution{
		Session: sessions.Session{
			Token:     token,
			ExpiresAt: r.nowTime().Add(fallbackExpiry),
			Source:    sessions.SourceFallback,
		},
	}
}

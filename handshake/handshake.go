// Package handshake runs the OAuth authorization-code-plus-deep-link
// sequence: it opens the provider's consent page in a system browser,
// receives the app's re-invocation through the custom URL scheme, and
// recovers the session credential smuggled through the redirect chain.
package handshake

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/pratoapp/go-session-gateway/credstore"
	"github.com/pratoapp/go-session-gateway/internal/errors"
	"github.com/pratoapp/go-session-gateway/kvsessions"
	"github.com/pratoapp/go-session-gateway/sessions"
)

const callbackPath = "auth/callback"

// EdgeAPI is the slice of the edge service the handshake talks to.
type EdgeAPI interface {
	// SocialAuthorizeURL asks the edge for a provider authorization URL
	// whose flow ultimately redirects to callbackURL
	SocialAuthorizeURL(ctx context.Context, callbackURL string) (string, error)

	// KVSession reads the fallback session record for a dbToken
	KVSession(ctx context.Context, dbToken string) (*kvsessions.Record, error)
}

// StateWriter is the guarded write surface of the auth state store. The
// handshake's result is fallback-derived, so it must never displace a
// session confirmed by another flow.
type StateWriter interface {
	SetUserFromFallback(user *sessions.User, loginType sessions.LoginType) bool
}

// DeepLinkEvents delivers URLs the OS re-invoked the app with. Subscribe
// returns the event channel and a release function; Run holds the
// subscription only for its own lifetime.
type DeepLinkEvents interface {
	Subscribe() (<-chan string, func())
}

// Handshake drives the sign-in sequence and consumes callback deep links.
type Handshake struct {
	edge    EdgeAPI
	creds   credstore.Store
	state   StateWriter
	browser Browser
	scheme  string

	lock     sync.Mutex
	consumed map[string]struct{}
}

// New wires a Handshake. scheme is the app's custom URL scheme, without
// the "://" suffix.
func New(edge EdgeAPI, creds credstore.Store, state StateWriter, browser Browser, scheme string) (*Handshake, error) {
	if edge == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[New] edge API is required")
	}
	if creds == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[New] credential store is required")
	}
	if state == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[New] state writer is required")
	}
	if browser == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "[New] browser is required")
	}
	if scheme == "" {
		return nil, errors.Wrapf(errors.ErrInternal, "[New] scheme is required")
	}
	return &Handshake{
		edge:     edge,
		creds:    creds,
		state:    state,
		browser:  browser,
		scheme:   scheme,
		consumed: make(map[string]struct{}),
	}, nil
}

// CallbackURL returns the deep link the edge should redirect back to.
func (h *Handshake) CallbackURL() string {
	return h.scheme + "://" + callbackPath
}

// BeginSignIn runs one full sign-in attempt: authorization URL, browser
// session, then callback processing. A user cancel is not an error; the
// caller simply returns to idle.
func (h *Handshake) BeginSignIn(ctx context.Context) error {
	authURL, err := h.edge.SocialAuthorizeURL(ctx, h.CallbackURL())
	if err != nil {
		return errors.Wrapf(errors.ErrHandshakeProtocolError, "[BeginSignIn] authorize URL: %s", err.Error())
	}

	result, err := h.browser.Open(ctx, authURL)
	if err != nil {
		return errors.Wrapf(errors.ErrHandshakeProtocolError, "[BeginSignIn] browser: %s", err.Error())
	}
	if result.Type == BrowserCancel {
		// A cancel is not an error; the caller returns to idle.
		log.Debug().Err(errors.ErrHandshakeAborted).Msg("sign-in cancelled")
		return nil
	}
	return h.OnDeepLink(ctx, result.URL)
}

// OnDeepLink consumes a callback URL. It is registered against the OS URL
// event and also invoked once eagerly when the app was cold-launched via
// the link, so the same URL can arrive more than once; each URL is
// processed at most once.
func (h *Handshake) OnDeepLink(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrapf(errors.ErrHandshakeProtocolError, "[OnDeepLink] parse url: %s", err.Error())
	}
	if parsed.Scheme != h.scheme || !isCallbackPath(parsed) {
		// Not our callback; ignore rather than error so unrelated deep
		// links pass through untouched.
		return nil
	}

	if !h.consume(rawURL) {
		log.Debug().Str("url", rawURL).Msg("callback already processed, skipping")
		return nil
	}

	cookie := parsed.Query().Get("session_token")
	if cookie == "" {
		return errors.Wrapf(errors.ErrHandshakeProtocolError, "[OnDeepLink] callback carries no session_token")
	}
	name, value, found := strings.Cut(cookie, "=")
	if !found || name == "" || value == "" {
		return errors.Wrapf(errors.ErrHandshakeProtocolError, "[OnDeepLink] malformed cookie %q", cookie)
	}

	// Write before use: a crash between here and the KV lookup still
	// leaves a recoverable fallback credential on the device.
	if err := h.creds.Set(name, value); err != nil {
		return errors.Wrapf(err, "[OnDeepLink] store cookie")
	}
	if err := h.creds.Set(credstore.KeyGoogleSession, value); err != nil {
		return errors.Wrapf(err, "[OnDeepLink] store fallback token")
	}

	record, err := h.edge.KVSession(ctx, sessions.DBToken(value))
	if err != nil {
		log.Warn().Err(err).Msg("session lookup after handshake failed")
		return errors.Wrapf(errors.ErrHandshakeProtocolError, "[OnDeepLink] session lookup: %s", err.Error())
	}

	user := record.User
	if !h.state.SetUserFromFallback(&user, sessions.LoginGoogle) {
		log.Debug().Msg("handshake result discarded, store already authenticated")
	}
	return nil
}

// Run subscribes to deep-link events and consumes them until ctx is done.
// Failures are logged and absorbed; the subscription is released on return.
func (h *Handshake) Run(ctx context.Context, events DeepLinkEvents) {
	urls, release := events.Subscribe()
	defer release()

	for {
		select {
		case <-ctx.Done():
			return
		case rawURL, ok := <-urls:
			if !ok {
				return
			}
			if err := h.OnDeepLink(ctx, rawURL); err != nil {
				log.Warn().Err(err).Msg("deep link processing failed")
			}
		}
	}
}

// consume marks a URL processed, reporting whether this caller won.
func (h *Handshake) consume(rawURL string) bool {
	h.lock.Lock()
	defer h.lock.Unlock()

	if _, done := h.consumed[rawURL]; done {
		return false
	}
	h.consumed[rawURL] = struct{}{}
	return true
}

func isCallbackPath(parsed *url.URL) bool {
	// Custom-scheme URLs parse the first segment as host, so
	// "prato://auth/callback" arrives as host "auth", path "/callback".
	joined := strings.TrimPrefix(parsed.Host+parsed.Path, "/")
	return strings.TrimSuffix(joined, "/") == callbackPath
}

package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/pratoapp/go-session-gateway/internal/errors"
	"github.com/pratoapp/go-session-gateway/kvsessions"
	"github.com/pratoapp/go-session-gateway/sessions"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated caller's identity
	ContextKeyUser ContextKey = "auth_user"
	// ContextKeySource stores which strategy authenticated the request
	ContextKeySource ContextKey = "auth_source"
)

// devUser is the fixed identity returned by the developer bypass.
var devUser = sessions.User{ID: "dev-user-id", Email: "dev@localhost", Name: "Dev User"}

// AuthUserFromContext returns the identity the gateway attached to the
// request, if any.
func AuthUserFromContext(ctx context.Context) (sessions.User, bool) {
	user, ok := ctx.Value(ContextKeyUser).(sessions.User)
	return user, ok
}

// RequireAuth is the authentication gateway: it resolves the caller before
// any route handler runs, trying the developer bypass, the primary session
// library, then a raw key-value lookup by bearer token. No strategy
// succeeding means 401; business logic never sees an unauthenticated
// request. The resolved identity lives only on this request's context.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if user, source, ok := s.authenticate(r); ok {
				ctx := context.WithValue(r.Context(), ContextKeyUser, user)
				ctx = context.WithValue(ctx, ContextKeySource, source)
				next(w, r.WithContext(ctx))
				return
			}

			// Distinguish "no credential at all" from "credential rejected
			// by every strategy" in the logs; the response is 401 either way.
			if bearerToken(r.Header) == "" && r.Header.Get("Cookie") == "" {
				log.Debug().Str("path", r.URL.Path).Err(errors.ErrCredentialMissing).Msg("request rejected")
			} else {
				log.Warn().Str("path", r.URL.Path).Err(errors.ErrVerificationFailed).Msg("request rejected")
			}

			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		}
	}
}

func (s *Server) authenticate(r *http.Request) (sessions.User, sessions.Source, bool) {
	token := bearerToken(r.Header)

	if s.env != "PRODUCTION" && token != "" && token == s.config.GetDevBypassToken() {
		return devUser, sessions.SourceDev, true
	}

	if account, err := s.auth.GetSession(r.Context(), r.Header); err == nil {
		return account.User, sessions.SourcePrimary, true
	}

	if user, ok := s.kvFallback(token); ok {
		return user, sessions.SourceFallback, true
	}

	return sessions.User{}, "", false
}

// kvFallback resolves a bearer token against the raw KV records, trying the
// current key encoding first and then the pre-rename one. Records were
// written by several generations of the service, so the JSON is parsed
// tolerantly; anything without a user id is rejected.
func (s *Server) kvFallback(token string) (sessions.User, bool) {
	if token == "" {
		return sessions.User{}, false
	}

	for _, key := range []string{kvsessions.Key(token), kvsessions.LegacyKey(token)} {
		raw, err := s.kv.Get(key)
		if err != nil {
			continue
		}

		parsed := gjson.ParseBytes(raw)
		userID := parsed.Get("user.id").String()
		if userID == "" {
			log.Warn().Str("key", key).Msg("kv session record has no user id, rejecting")
			continue
		}

		return sessions.User{
			ID:    userID,
			Email: parsed.Get("user.email").String(),
			Name:  parsed.Get("user.name").String(),
			Image: parsed.Get("user.image").String(),
		}, true
	}
	return sessions.User{}, false
}

func bearerToken(header http.Header) string {
	authHeader := header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[len("bearer "):])
}

package sessions

import (
	"time"
)

// Source identifies which credential path produced a session.
// Resolution order is dev > primary > fallback; at most one source
// wins per resolution pass.
type Source string

const (
	SourceDev      Source = "dev"      // developer bypass, non-production builds only
	SourcePrimary  Source = "primary"  // primary session library (cookie/header lookup)
	SourceFallback Source = "fallback" // synthesized from the stored fallback token
)

// LoginType records how the current user authenticated. It drives the
// sign-out path: google logins need the manual deletion path because the
// primary library cannot see the session cookie from the mobile runtime.
type LoginType string

const (
	LoginNone   LoginType = ""
	LoginEmail  LoginType = "email"
	LoginGoogle LoginType = "google"
)

// User is the identity attached to a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}

// Session is a resolved credential. The token is opaque to everything in
// this module except DBToken, which relies on its <dbID>.<signature> shape.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	Source    Source    `json:"source,omitempty"`
}

// Valid reports whether the session is usable at the given instant.
// A token present in storage with an expiry in the past never counts.
func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.ExpiresAt.After(now)
}

// Account pairs a user with their session. It is the typed form of the
// primary library's {data: {user, session}} payload; untyped payloads are
// narrowed into it at the orchestration boundary and never travel further.
type Account struct {
	User    User    `json:"user"`
	Session Session `json:"session"`
}

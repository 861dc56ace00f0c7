package config

import "time"

type SessionConfig interface {
	GetSessionSecret() string
	GetSessionExpiry() time.Duration
	GetSessionCookieName() string
	GetDevBypassToken() string
}

type Session struct{}

var _ SessionConfig = Session{}

// GetSessionSecret returns the HMAC secret used to sign session tokens.
// The default exists so local development works out of the box; production
// deployments must set SESSION_SECRET.
func (Session) GetSessionSecret() string {
	return GetEnv("SESSION_SECRET", "local-dev-session-secret")
}

func (Session) GetSessionExpiry() time.Duration {
	return 7 * 24 * time.Hour
}

func (Session) GetSessionCookieName() string {
	return GetEnv("SESSION_COOKIE_NAME", "prato.session_token")
}

// GetDevBypassToken returns the fixed bearer token the gateway accepts as a
// developer bypass. Only honoured when ENV is not "production".
func (Session) GetDevBypassToken() string {
	return GetEnv("DEV_BYPASS_TOKEN", "dev-session-0000")
}

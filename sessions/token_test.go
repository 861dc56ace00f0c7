package sessions_test

import (
	"testing"
	"time"

	"github.com/pratoapp/go-session-gateway/sessions"
	"github.com/stretchr/testify/assert"
)

func TestDBToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{
			name:  "structured token keeps prefix before first dot",
			token: "abc123.signature",
			want:  "abc123",
		},
		{
			name:  "only the first dot splits",
			token: "abc123.sig.extra",
			want:  "abc123",
		},
		{
			name:  "legacy token without dot returned whole",
			token: "legacytoken",
			want:  "legacytoken",
		},
		{
			name:  "empty token",
			token: "",
			want:  "",
		},
		{
			name:  "leading dot yields empty prefix",
			token: ".signature",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sessions.DBToken(tt.token))
		})
	}
}

func TestSessionValid(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		session *sessions.Session
		want    bool
	}{
		{
			name:    "nil session is invalid",
			session: nil,
			want:    false,
		},
		{
			name:    "empty token is invalid",
			session: &sessions.Session{ExpiresAt: now.Add(time.Hour)},
			want:    false,
		},
		{
			name:    "expired session is invalid regardless of presence",
			session: &sessions.Session{Token: "t.sig", ExpiresAt: now.Add(-time.Minute)},
			want:    false,
		},
		{
			name:    "live session is valid",
			session: &sessions.Session{Token: "t.sig", ExpiresAt: now.Add(time.Minute)},
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.session.Valid(now))
		})
	}
}

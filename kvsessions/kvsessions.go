// Package kvsessions stores the fallback source of truth for sessions: raw
// JSON records keyed by the dbToken prefix of a session token. The primary
// library consults its own session table; this store exists for callers
// (the mobile runtime in particular) that can only present a bearer token.
package kvsessions

import (
	"encoding/json"

	"github.com/pratoapp/go-session-gateway/sessions"
)

// Record is the {user, session} payload stored under a session key.
type Record struct {
	User    sessions.User    `json:"user"`
	Session sessions.Session `json:"session"`
}

// Key returns the current key encoding for a token or dbToken.
func Key(token string) string {
	return "session:" + token
}

// LegacyKey returns the pre-rename key encoding. Records written before the
// prefix was introduced still live under the bare token, so readers try
// both encodings.
func LegacyKey(token string) string {
	return token
}

// Marshal encodes a record for storage.
func (r Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Unmarshal decodes a stored record.
func Unmarshal(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

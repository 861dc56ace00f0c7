package sessions

import (
	"time"
)

// SessionData is a primary session record. Records are keyed by the dbToken
// prefix of the issued token; the full token (dbToken plus signature) is
// kept so a presented credential can be matched exactly, not just by prefix.
type SessionData struct {
	DBToken   string    // Record key, the prefix before the token's first dot
	Token     string    // Full issued token (<dbToken>.<signature>)
	UserID    string    // Owner of the session
	ExpiresAt time.Time // When the session stops being accepted
	CreatedAt time.Time // When the session was issued
}

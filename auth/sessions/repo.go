package sessions

import "time"

// Repo defines the interface for primary session storage operations.
type Repo interface {
	// Upsert creates or updates a session record
	Upsert(sessionData *SessionData) error

	// Get retrieves a session by its dbToken key
	Get(dbToken string) (*SessionData, error)

	// Delete removes a session by its dbToken key; absent keys are not an error
	Delete(dbToken string) error

	// DeleteExpiredSessions removes sessions that expired before the given time
	DeleteExpiredSessions(expiryTime time.Time) error
}

// Package credstore is the on-device credential store: named token slots in
// persistent key-value storage. It is owned by the client runtime; nothing
// on the edge reads it.
package credstore

// Slot names. Several slots can hold the same value: handshake completion
// writes the cookie under its original name and under the canonical
// fallback slot so older readers keep working.
const (
	// KeySessionToken holds the primary session cookie value
	KeySessionToken = "prato.session_token"
	// KeyGoogleSession is the canonical fallback slot written when a
	// google sign-in completes
	KeyGoogleSession = "prato.google_session_token"
	// KeyLegacyCookie is the slot older builds wrote the raw cookie to
	KeyLegacyCookie = "prato.legacy_cookie"
)

// AllKeys lists every known slot, in the order sign-out clears them.
var AllKeys = []string{KeySessionToken, KeyGoogleSession, KeyLegacyCookie}

// Store is persistent device key-value storage for tokens. Implementations
// must tolerate concurrent readers; writes come from single owners.
type Store interface {
	// Get returns the value in a slot, or ErrNotFound when the slot is empty
	Get(key string) (string, error)

	// Set writes a slot
	Set(key, value string) error

	// Remove clears the given slots; clearing an absent slot is not an error
	Remove(keys ...string) error
}

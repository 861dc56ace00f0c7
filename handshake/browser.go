package handshake

import "context"

// BrowserResultType classifies how an external browser session ended.
type BrowserResultType string

const (
	BrowserSuccess BrowserResultType = "success" // redirected back to the callback scheme
	BrowserCancel  BrowserResultType = "cancel"  // dismissed by the user
)

// BrowserResult is the outcome of a browser session. URL is only set on
// success and carries the full callback deep link.
type BrowserResult struct {
	Type BrowserResultType
	URL  string
}

// Browser opens an authorization URL in a system browser context and
// suspends until the session completes. Implementations are supplied by the
// platform runtime; they must guarantee at most one completion per Open
// call.
type Browser interface {
	Open(ctx context.Context, authURL string) (BrowserResult, error)
}

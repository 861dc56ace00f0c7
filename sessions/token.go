package sessions

import "strings"

// Session tokens are structured as <dbToken>.<signature>. The dbToken half
// is the record identifier the edge stores sessions under; the signature
// half proves the token was issued by the server and never leaves the
// primary library's verification path.

// DBToken returns the database-identifying prefix of a structured session
// token: everything before the first dot. A token without a dot is returned
// whole, which matches how legacy unsigned tokens were keyed.
func DBToken(token string) string {
	if i := strings.IndexByte(token, '.'); i >= 0 {
		return token[:i]
	}
	return token
}

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
)

// Session tokens are <dbToken>.<signature>: an opaque record identifier
// followed by an HMAC-SHA256 over that identifier. Holders cannot forge a
// token for a dbToken they never received, and verification needs no
// database access.

func signDBToken(secret []byte, dbToken string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(dbToken))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// mintToken generates a fresh structured session token.
func mintToken(secret []byte) (token, dbToken string) {
	dbToken = strings.ReplaceAll(uuid.New().String(), "-", "")
	return dbToken + "." + signDBToken(secret, dbToken), dbToken
}

// verifyToken checks a presented token's signature and returns its dbToken.
func verifyToken(secret []byte, token string) (string, error) {
	i := strings.IndexByte(token, '.')
	if i <= 0 || i == len(token)-1 {
		return "", InvalidTokenErr
	}
	dbToken, sig := token[:i], token[i+1:]
	if !hmac.Equal([]byte(sig), []byte(signDBToken(secret, dbToken))) {
		return "", InvalidTokenErr
	}
	return dbToken, nil
}

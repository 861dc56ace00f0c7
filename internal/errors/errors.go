package errors

import (
	"errors"
	"fmt"
)

// Common error types for session resolution and the OAuth handshake
var (
	// Resolution errors
	ErrCredentialMissing  = errors.New("no credential source produced a session")
	ErrVerificationFailed = errors.New("token rejected by every strategy")

	// Handshake errors
	ErrHandshakeAborted       = errors.New("handshake cancelled by user")
	ErrHandshakeProtocolError = errors.New("handshake protocol error")

	// Sign-out errors
	ErrRemoteSignOutFailure = errors.New("remote session deletion failed")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidToken    = errors.New("invalid token")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

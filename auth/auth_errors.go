package auth

import "errors"

var (
	InvalidCredentialsErr = errors.New("invalid email or password")
	UserExistsErr         = errors.New("an account with this email already exists")
	InvalidTokenErr       = errors.New("invalid session token")
	SessionExpiredErr     = errors.New("session expired")
	InvalidStateErr       = errors.New("invalid state parameter")
	ProviderErr           = errors.New("identity provider error")
)

package config

import "time"

type ProviderConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetProviderIssuer() string
	GetStateExpiry() time.Duration
	GetAppScheme() string
}

type Provider struct{}

var _ ProviderConfig = Provider{}

func (Provider) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

func (Provider) GetGoogleClientSecret() string {
	return GetEnv("GOOGLE_CLIENT_SECRET", "")
}

func (Provider) GetProviderIssuer() string {
	return GetEnv("PROVIDER_ISSUER", "https://accounts.google.com")
}

// GetStateExpiry bounds how long a signed OAuth state parameter stays
// valid between the authorize redirect and the provider callback.
func (Provider) GetStateExpiry() time.Duration {
	return 15 * time.Minute
}

// GetAppScheme returns the custom URL scheme the mobile app registers for
// deep-link callbacks, e.g. "prato" for prato://auth/callback.
func (Provider) GetAppScheme() string {
	return GetEnv("APP_SCHEME", "prato")
}

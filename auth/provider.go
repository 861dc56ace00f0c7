package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Identity is the verified claim set returned by an identity provider after
// a successful authorization-code exchange.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IdentityProvider abstracts the third-party OAuth provider so the service
// can be tested without network access.
type IdentityProvider interface {
	// AuthCodeURL builds the provider authorization URL for a signed state
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for a verified identity
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// GoogleProvider implements IdentityProvider over Google's OIDC endpoints.
type GoogleProvider struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
}

// NewGoogleProvider discovers the issuer configuration and prepares the
// authorization-code flow. redirectURL must match the URI registered with
// the provider (the edge callback route, not the app scheme).
func NewGoogleProvider(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*GoogleProvider, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("[NewGoogleProvider] provider discovery: %w", err)
	}

	return &GoogleProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  redirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (gp *GoogleProvider) AuthCodeURL(state string) string {
	return gp.oauth2Config.AuthCodeURL(state)
}

func (gp *GoogleProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	oauth2Token, err := gp.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("[Exchange] token exchange failed: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("[Exchange] no ID token in response: %w", ProviderErr)
	}

	idToken, err := gp.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("[Exchange] ID token verification failed: %w", err)
	}

	var claims struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("[Exchange] failed to extract claims: %w", err)
	}

	return &Identity{
		Subject: claims.Sub,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

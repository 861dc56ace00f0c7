// Package edgeclient is the mobile client's HTTP surface onto the edge
// service: the primary session library routes, the fallback KV session
// lookup, and the manual session deletion endpoint.
package edgeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pratoapp/go-session-gateway/internal/errors"
	"github.com/pratoapp/go-session-gateway/kvsessions"
	"github.com/pratoapp/go-session-gateway/sessions"
)

const defaultTimeout = 15 * time.Second

// TokenSource supplies the current bearer token, or "" when none is stored.
type TokenSource func() string

// Client talks to the edge service. A zero token from the source simply
// sends unauthenticated requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client (primarily for testing)
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a Client for the edge service at baseURL.
func New(baseURL string, token TokenSource, options ...ClientOption) (*Client, error) {
	if baseURL == "" {
		return nil, errors.Wrapf(errors.ErrInternal, "[New] baseURL is required")
	}
	if token == nil {
		token = func() string { return "" }
	}

	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		token:      token,
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// SignIn authenticates an email/password pair against the edge.
func (c *Client) SignIn(ctx context.Context, email, password string) (*sessions.Account, error) {
	var account sessions.Account
	err := c.do(ctx, http.MethodPost, "/api/auth/sign-in/email",
		credentialsRequest{Email: email, Password: password}, &account)
	if err != nil {
		return nil, errors.Wrapf(err, "[SignIn]")
	}
	return &account, nil
}

// SignUp registers a new user on the edge.
func (c *Client) SignUp(ctx context.Context, email, password, name string) (*sessions.Account, error) {
	var account sessions.Account
	err := c.do(ctx, http.MethodPost, "/api/auth/sign-up/email",
		credentialsRequest{Email: email, Password: password, Name: name}, &account)
	if err != nil {
		return nil, errors.Wrapf(err, "[SignUp]")
	}
	return &account, nil
}

// SignOut revokes the current session on the edge.
func (c *Client) SignOut(ctx context.Context) error {
	return errors.Wrapf(c.do(ctx, http.MethodPost, "/api/auth/sign-out", nil, nil), "[SignOut]")
}

// GetSession asks the primary session library who the stored token belongs
// to. ErrSessionNotFound when the edge rejects the credential.
func (c *Client) GetSession(ctx context.Context) (*sessions.Account, error) {
	var account sessions.Account
	if err := c.do(ctx, http.MethodGet, "/api/auth/get-session", nil, &account); err != nil {
		if errors.Is(err, errors.ErrSessionNotFound) {
			return nil, errors.ErrSessionNotFound
		}
		return nil, errors.Wrapf(err, "[GetSession]")
	}
	return &account, nil
}

// SocialAuthorizeURL asks the edge for a provider authorization URL whose
// flow redirects back to callbackURL.
func (c *Client) SocialAuthorizeURL(ctx context.Context, callbackURL string) (string, error) {
	var response struct {
		URL string `json:"url"`
	}
	path := "/api/auth/sign-in/social?callback_url=" + url.QueryEscape(callbackURL)
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return "", errors.Wrapf(err, "[SocialAuthorizeURL]")
	}
	return response.URL, nil
}

// KVSession reads the fallback session record for a dbToken. ErrNotFound
// when no record exists under the key.
func (c *Client) KVSession(ctx context.Context, dbToken string) (*kvsessions.Record, error) {
	var record kvsessions.Record
	if err := c.do(ctx, http.MethodGet, "/api/auth/kv-session/"+url.PathEscape(dbToken), nil, &record); err != nil {
		return nil, errors.Wrapf(err, "[KVSession]")
	}
	return &record, nil
}

type deleteSessionRequest struct {
	SessionToken string `json:"sessionToken"`
}

// DeleteSession removes the session row for a raw token. Deleting an
// already-absent session is not an error on the edge.
func (c *Client) DeleteSession(ctx context.Context, sessionToken string) error {
	err := c.do(ctx, http.MethodPost, "/api/delete-session", deleteSessionRequest{SessionToken: sessionToken}, nil)
	return errors.Wrapf(err, "[DeleteSession]")
}

// do runs one request: JSON body in, JSON body out, bearer token attached
// when one is stored.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode == http.StatusNotFound {
		return errors.ErrNotFound
	}
	if response.StatusCode == http.StatusUnauthorized {
		return errors.ErrSessionNotFound
	}
	if response.StatusCode >= http.StatusBadRequest {
		var errBody struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(response.Body).Decode(&errBody); decodeErr == nil && errBody.Error != "" {
			return fmt.Errorf("edge returned %d: %s", response.StatusCode, errBody.Error)
		}
		return fmt.Errorf("edge returned %d", response.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(out)
}

package edgeclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratoapp/go-session-gateway/edgeclient"
	"github.com/pratoapp/go-session-gateway/internal/errors"
	"github.com/pratoapp/go-session-gateway/kvsessions"
	"github.com/pratoapp/go-session-gateway/sessions"
)

func newClient(t *testing.T, handler http.Handler, token string) *edgeclient.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := edgeclient.New(server.URL, func() string { return token })
	require.NoError(t, err)
	return client
}

func TestGetSessionSendsBearerToken(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/api/auth/get-session", r.URL.Path)
		_ = json.NewEncoder(w).Encode(sessions.Account{
			User:    sessions.User{ID: "user-1"},
			Session: sessions.Session{Token: "tok.sig", UserID: "user-1"},
		})
	})

	client := newClient(t, handler, "tok.sig")
	account, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok.sig", gotAuth)
	assert.Equal(t, "user-1", account.User.ID)
}

func TestGetSessionUnauthorized(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no session"}`, http.StatusUnauthorized)
	})

	client := newClient(t, handler, "")
	_, err := client.GetSession(context.Background())
	assert.True(t, errors.Is(err, errors.ErrSessionNotFound))
}

func TestKVSession(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/kv-session/abc123", r.URL.Path)
		_ = json.NewEncoder(w).Encode(kvsessions.Record{User: sessions.User{ID: "kv-user"}})
	})

	client := newClient(t, handler, "")
	record, err := client.KVSession(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "kv-user", record.User.ID)
}

func TestKVSessionNotFound(t *testing.T) {
	client := newClient(t, http.NotFoundHandler(), "")

	_, err := client.KVSession(context.Background(), "missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestDeleteSession(t *testing.T) {
	var gotBody map[string]string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/delete-session", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})

	client := newClient(t, handler, "gtok.sig")
	require.NoError(t, client.DeleteSession(context.Background(), "gtok.sig"))
	assert.Equal(t, "gtok.sig", gotBody["sessionToken"])
}

func TestSocialAuthorizeURL(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "prato://auth/callback", r.URL.Query().Get("callback_url"))
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://accounts.google.com/o/oauth2/auth?state=s"})
	})

	client := newClient(t, handler, "")
	authURL, err := client.SocialAuthorizeURL(context.Background(), "prato://auth/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth?state=s", authURL)
}

func TestErrorBodySurfaced(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "weak password"})
	})

	client := newClient(t, handler, "")
	_, err := client.SignUp(context.Background(), "a@b.com", "pw", "A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weak password")
}

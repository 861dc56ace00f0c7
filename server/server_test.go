package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratoapp/go-session-gateway/auth"
	fakesessionrepo "github.com/pratoapp/go-session-gateway/auth/sessions/repofakes"
	"github.com/pratoapp/go-session-gateway/internal/config"
	"github.com/pratoapp/go-session-gateway/kvsessions"
	fakekvrepo "github.com/pratoapp/go-session-gateway/kvsessions/repofakes"
	"github.com/pratoapp/go-session-gateway/server"
	"github.com/pratoapp/go-session-gateway/sessions"
	fakeuserrepo "github.com/pratoapp/go-session-gateway/users/repofake"
)

const (
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "Password123"
)

// testConfig overrides the environment so the gateway's dev bypass can be
// exercised in both modes.
type testConfig struct {
	config.Config
	env string
}

func (tc testConfig) GetEnv() string {
	return tc.env
}

type testFixture struct {
	kvRepo  *fakekvrepo.FakeKVRepo
	service *auth.Service
	server  *server.Server
}

func newTestFixture(t *testing.T, env string) *testFixture {
	t.Helper()

	f := &testFixture{kvRepo: fakekvrepo.NewFakeKVRepo()}

	cfg := testConfig{Config: config.New(), env: env}
	repos := auth.Repos{
		Users:    fakeuserrepo.NewFakeUserRepo(),
		Sessions: fakesessionrepo.NewFakeSessionRepo(),
		KV:       f.kvRepo,
	}
	service, err := auth.NewService(repos, cfg.GetSessionSecret(), cfg.GetSessionCookieName())
	require.NoError(t, err)
	f.service = service

	srv, err := server.New(cfg, service, f.kvRepo)
	require.NoError(t, err)
	f.server = srv
	return f
}

// signUp creates a user through the auth service and returns the session token.
func (f *testFixture) signUp(t *testing.T) string {
	t.Helper()

	account, err := f.service.SignUp(context.Background(), testUserEmail, testUserPassword, "John Doe")
	require.NoError(t, err)
	return account.Session.Token
}

func (f *testFixture) request(method, path string, headers map[string]string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	r := httptest.NewRequest(method, path, reader)
	for key, value := range headers {
		r.Header.Set(key, value)
	}
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, r)
	return w
}

func TestGatewayPrimarySession(t *testing.T) {
	f := newTestFixture(t, "PRODUCTION")
	token := f.signUp(t)

	w := f.request(http.MethodGet, "/v1/me", map[string]string{"Authorization": "Bearer " + token}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var user sessions.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, testUserEmail, user.Email)
}

func TestGatewayRejectsUnauthenticated(t *testing.T) {
	f := newTestFixture(t, "PRODUCTION")

	w := f.request(http.MethodGet, "/v1/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.request(http.MethodGet, "/v1/me", map[string]string{"Authorization": "Bearer forged.token"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGatewayDevBypass(t *testing.T) {
	f := newTestFixture(t, "DEV")

	w := f.request(http.MethodGet, "/v1/me", map[string]string{"Authorization": "Bearer dev-session-0000"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var user sessions.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "dev-user-id", user.ID)
}

func TestGatewayDevBypassDisabledInProduction(t *testing.T) {
	f := newTestFixture(t, "PRODUCTION")

	w := f.request(http.MethodGet, "/v1/me", map[string]string{"Authorization": "Bearer dev-session-0000"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGatewayKVFallbackBothKeyEncodings(t *testing.T) {
	record, err := kvsessions.Record{User: sessions.User{ID: "9"}}.Marshal()
	require.NoError(t, err)

	for name, key := range map[string]string{
		"prefixed key": kvsessions.Key("xyz"),
		"bare key":     kvsessions.LegacyKey("xyz"),
	} {
		t.Run(name, func(t *testing.T) {
			f := newTestFixture(t, "PRODUCTION")
			require.NoError(t, f.kvRepo.Put(key, record))

			w := f.request(http.MethodGet, "/v1/me", map[string]string{"Authorization": "Bearer xyz"}, "")
			require.Equal(t, http.StatusOK, w.Code)

			var user sessions.User
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
			assert.Equal(t, "9", user.ID)
		})
	}
}

func TestGatewayKVFallbackRejectsRecordWithoutUser(t *testing.T) {
	f := newTestFixture(t, "PRODUCTION")
	require.NoError(t, f.kvRepo.Put(kvsessions.Key("xyz"), []byte(`{"session":{"token":"xyz"}}`)))

	w := f.request(http.MethodGet, "/v1/me", map[string]string{"Authorization": "Bearer xyz"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestKVSessionEndpoint(t *testing.T) {
	f := newTestFixture(t, "PRODUCTION")
	token := f.signUp(t)
	dbToken := sessions.DBToken(token)

	w := f.request(http.MethodGet, "/api/auth/kv-session/"+dbToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var record kvsessions.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, testUserEmail, record.User.Email)
	assert.Equal(t, token, record.Session.Token)
}

func TestKVSessionEndpointLegacyKey(t *testing.T) {
	f := newTestFixture(t, "PRODUCTION")
	record, err := kvsessions.Record{User: sessions.User{ID: "legacy-user"}}.Marshal()
	require.NoError(t, err)
	require.NoError(t, f.kvRepo.Put(kvsessions.LegacyKey("olddb"), record))

	w := f.request(http.MethodGet, "/api/auth/kv-session/olddb", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestKVSessionEndpointNotFound(t *testing.T) {
	f := newTestFixture(t, "PRODUCTION")

	w := f.request(http.MethodGet, "/api/auth/kv-session/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteSessionEndpoint(t *testing.T) {
	f := newTestFixture(t, "PRODUCTION")
	token := f.signUp(t)

	w := f.request(http.MethodPost, "/api/delete-session", nil, `{"sessionToken":"`+token+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	// The session is gone from both the primary store and the KV mirror
	w = f.request(http.MethodGet, "/v1/me", map[string]string{"Authorization": "Bearer " + token}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, f.kvRepo.Len())
}

func TestDeleteSessionEndpointIdempotent(t *testing.T) {
	f := newTestFixture(t, "PRODUCTION")

	w := f.request(http.MethodPost, "/api/delete-session", nil, `{"sessionToken":"never-existed.sig"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	f := newTestFixture(t, "PRODUCTION")

	w := f.request(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

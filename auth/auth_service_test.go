package auth_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratoapp/go-session-gateway/auth"
	fakesessionrepo "github.com/pratoapp/go-session-gateway/auth/sessions/repofakes"
	"github.com/pratoapp/go-session-gateway/kvsessions"
	fakekvrepo "github.com/pratoapp/go-session-gateway/kvsessions/repofakes"
	"github.com/pratoapp/go-session-gateway/sessions"
	"github.com/pratoapp/go-session-gateway/users"
	fakeuserrepo "github.com/pratoapp/go-session-gateway/users/repofake"
)

const (
	secretStr        = "test-session-secret"
	cookieName       = "prato.session_token"
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "Password123"
	testUserName     = "John Doe"
)

// testFixture holds all test dependencies
type testFixture struct {
	userRepo    users.Repo
	sessionRepo *fakesessionrepo.FakeSessionRepo
	kvRepo      *fakekvrepo.FakeKVRepo
	service     *auth.Service
	now         time.Time
}

// fakeProvider returns a fixed identity without touching the network.
type fakeProvider struct {
	identity auth.Identity
	err      error
	calls    int
}

func (fp *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.example.com/authorize?state=" + state
}

func (fp *fakeProvider) Exchange(ctx context.Context, code string) (*auth.Identity, error) {
	fp.calls++
	if fp.err != nil {
		return nil, fp.err
	}
	return &fp.identity, nil
}

func setupTestFixture(t *testing.T, options ...auth.ServiceOption) *testFixture {
	t.Helper()

	f := &testFixture{
		userRepo:    fakeuserrepo.NewFakeUserRepo(),
		sessionRepo: fakesessionrepo.NewFakeSessionRepo(),
		kvRepo:      fakekvrepo.NewFakeKVRepo(),
		now:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	opts := append([]auth.ServiceOption{
		auth.WithNowTime(func() time.Time { return f.now }),
	}, options...)

	service, err := auth.NewService(auth.Repos{
		Users:    f.userRepo,
		Sessions: f.sessionRepo,
		KV:       f.kvRepo,
	}, secretStr, cookieName, opts...)
	require.NoError(t, err)

	f.service = service
	return f
}

func (f *testFixture) signUp(t *testing.T) *sessions.Account {
	t.Helper()
	account, err := f.service.SignUp(context.Background(), testUserEmail, testUserPassword, testUserName)
	require.NoError(t, err)
	return account
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := auth.NewService(auth.Repos{}, secretStr, cookieName)
	require.Error(t, err)

	_, err = auth.NewService(auth.Repos{
		Users:    fakeuserrepo.NewFakeUserRepo(),
		Sessions: fakesessionrepo.NewFakeSessionRepo(),
		KV:       fakekvrepo.NewFakeKVRepo(),
	}, "", cookieName)
	require.Error(t, err)
}

func TestSignUpIssuesStructuredToken(t *testing.T) {
	f := setupTestFixture(t)
	account := f.signUp(t)

	assert.Equal(t, testUserEmail, account.User.Email)
	assert.Equal(t, testUserName, account.User.Name)
	assert.NotEmpty(t, account.User.ID)

	token := account.Session.Token
	require.Contains(t, token, ".")
	dbToken := sessions.DBToken(token)
	assert.NotEmpty(t, dbToken)
	assert.NotEqual(t, token, dbToken)

	// Primary record stored under the dbToken
	record, err := f.sessionRepo.Get(dbToken)
	require.NoError(t, err)
	assert.Equal(t, token, record.Token)
	assert.Equal(t, account.User.ID, record.UserID)

	// KV mirror stored under the prefixed key
	data, err := f.kvRepo.Get(kvsessions.Key(dbToken))
	require.NoError(t, err)
	mirror, err := kvsessions.Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, account.User.ID, mirror.User.ID)
	assert.Equal(t, token, mirror.Session.Token)
}

func TestSignUpRejectsDuplicateEmail(t *testing.T) {
	f := setupTestFixture(t)
	f.signUp(t)

	_, err := f.service.SignUp(context.Background(), testUserEmail, testUserPassword, "Other Name")
	require.ErrorIs(t, err, auth.UserExistsErr)
}

func TestSignUpRejectsWeakPassword(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.SignUp(context.Background(), testUserEmail, "short", testUserName)
	require.Error(t, err)
}

func TestSignIn(t *testing.T) {
	f := setupTestFixture(t)
	f.signUp(t)

	t.Run("valid credentials issue a new session", func(t *testing.T) {
		account, err := f.service.SignIn(context.Background(), testUserEmail, testUserPassword)
		require.NoError(t, err)
		assert.Equal(t, testUserEmail, account.User.Email)
		assert.Equal(t, sessions.SourcePrimary, account.Session.Source)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		_, err := f.service.SignIn(context.Background(), testUserEmail, "WrongPassword1")
		require.ErrorIs(t, err, auth.InvalidCredentialsErr)
	})

	t.Run("unknown user rejected with same error", func(t *testing.T) {
		_, err := f.service.SignIn(context.Background(), "nobody@example.com", testUserPassword)
		require.ErrorIs(t, err, auth.InvalidCredentialsErr)
	})
}

func TestGetSession(t *testing.T) {
	f := setupTestFixture(t)
	account := f.signUp(t)
	token := account.Session.Token

	t.Run("resolves from cookie header", func(t *testing.T) {
		header := http.Header{}
		header.Set("Cookie", cookieName+"="+token)
		got, err := f.service.GetSession(context.Background(), header)
		require.NoError(t, err)
		assert.Equal(t, account.User.ID, got.User.ID)
	})

	t.Run("resolves from bearer header", func(t *testing.T) {
		header := http.Header{}
		header.Set("Authorization", "Bearer "+token)
		got, err := f.service.GetSession(context.Background(), header)
		require.NoError(t, err)
		assert.Equal(t, account.User.ID, got.User.ID)
	})

	t.Run("no credential", func(t *testing.T) {
		_, err := f.service.GetSession(context.Background(), http.Header{})
		require.Error(t, err)
	})

	t.Run("tampered signature rejected", func(t *testing.T) {
		dbToken := sessions.DBToken(token)
		_, err := f.service.GetSessionFromToken(context.Background(), dbToken+".forgedsignature")
		require.ErrorIs(t, err, auth.InvalidTokenErr)
	})

	t.Run("expired session rejected", func(t *testing.T) {
		f.now = f.now.Add(8 * 24 * time.Hour)
		defer func() { f.now = f.now.Add(-8 * 24 * time.Hour) }()
		_, err := f.service.GetSessionFromToken(context.Background(), token)
		require.ErrorIs(t, err, auth.SessionExpiredErr)
	})
}

func TestSignOut(t *testing.T) {
	f := setupTestFixture(t)
	account := f.signUp(t)
	token := account.Session.Token
	dbToken := sessions.DBToken(token)

	require.NoError(t, f.service.SignOut(context.Background(), token))

	_, err := f.sessionRepo.Get(dbToken)
	require.Error(t, err)
	_, err = f.kvRepo.Get(kvsessions.Key(dbToken))
	require.Error(t, err)

	// Idempotent
	require.NoError(t, f.service.SignOut(context.Background(), token))
}

func TestPurgeExpiredSessions(t *testing.T) {
	f := setupTestFixture(t)
	f.signUp(t)
	require.Equal(t, 1, f.sessionRepo.Len())

	t.Run("live sessions survive", func(t *testing.T) {
		require.NoError(t, f.service.PurgeExpiredSessions())
		assert.Equal(t, 1, f.sessionRepo.Len())
	})

	t.Run("expired sessions removed", func(t *testing.T) {
		f.now = f.now.Add(8 * 24 * time.Hour)
		defer func() { f.now = f.now.Add(-8 * 24 * time.Hour) }()
		require.NoError(t, f.service.PurgeExpiredSessions())
		assert.Equal(t, 0, f.sessionRepo.Len())
	})
}

func TestAuthorizeURLCarriesSignedState(t *testing.T) {
	fp := &fakeProvider{}
	f := setupTestFixture(t, auth.WithProvider(fp))

	url, err := f.service.AuthorizeURL("prato://auth/callback")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "https://provider.example.com/authorize?state="))
	assert.Greater(t, len(url), len("https://provider.example.com/authorize?state=")+20)
}

func TestCompleteOAuth(t *testing.T) {
	fp := &fakeProvider{identity: auth.Identity{
		Subject: "google-sub-1",
		Email:   "jane@example.com",
		Name:    "Jane",
		Picture: "https://img.example.com/jane.png",
	}}
	f := setupTestFixture(t, auth.WithProvider(fp))

	authorizeURL, err := f.service.AuthorizeURL("prato://auth/callback")
	require.NoError(t, err)
	state := authorizeURL[strings.Index(authorizeURL, "state=")+len("state="):]

	account, callbackURL, err := f.service.CompleteOAuth(context.Background(), "auth-code", state)
	require.NoError(t, err)
	assert.Equal(t, "prato://auth/callback", callbackURL)
	assert.Equal(t, "jane@example.com", account.User.Email)
	assert.NotEmpty(t, account.Session.Token)

	t.Run("tampered state rejected", func(t *testing.T) {
		_, _, err := f.service.CompleteOAuth(context.Background(), "auth-code", state+"x")
		require.ErrorIs(t, err, auth.InvalidStateErr)
	})

	t.Run("expired state rejected", func(t *testing.T) {
		f.now = f.now.Add(time.Hour)
		defer func() { f.now = f.now.Add(-time.Hour) }()
		_, _, err := f.service.CompleteOAuth(context.Background(), "auth-code", state)
		require.ErrorIs(t, err, auth.InvalidStateErr)
	})
}

package resolver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratoapp/go-session-gateway/credstore"
	fakecredstore "github.com/pratoapp/go-session-gateway/credstore/storefakes"
	"github.com/pratoapp/go-session-gateway/internal/errors"
	"github.com/pratoapp/go-session-gateway/resolver"
	"github.com/pratoapp/go-session-gateway/sessions"
)

type fakePrimary struct {
	account *sessions.Account
	err     error
	calls   int
}

func (fp *fakePrimary) GetSession(_ context.Context) (*sessions.Account, error) {
	fp.calls++
	if fp.err != nil {
		return nil, fp.err
	}
	return fp.account, nil
}

type testFixture struct {
	primary  *fakePrimary
	creds    *fakecredstore.FakeStore
	resolver *resolver.Resolver
	now      time.Time
}

func newTestFixture(t *testing.T, options ...resolver.ResolverOption) *testFixture {
	t.Helper()

	f := &testFixture{
		primary: &fakePrimary{},
		creds:   fakecredstore.NewFakeStore(),
		now:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	options = append([]resolver.ResolverOption{
		resolver.WithNowTime(func() time.Time { return f.now }),
	}, options...)
	f.resolver = resolver.New(f.primary, f.creds, options...)
	return f
}

func primaryAccount(now time.Time) *sessions.Account {
	return &sessions.Account{
		User: sessions.User{ID: "user-1", Email: "john.doe@example.com"},
		Session: sessions.Session{
			Token:     "abc123.signature",
			UserID:    "user-1",
			ExpiresAt: now.Add(time.Hour),
		},
	}
}

func TestResolvePrimarySession(t *testing.T) {
	f := newTestFixture(t)
	f.primary.account = primaryAccount(f.now)

	resolution := f.resolver.Resolve(context.Background())
	require.NotNil(t, resolution)
	assert.Equal(t, sessions.SourcePrimary, resolution.Session.Source)
	assert.Equal(t, "abc123.signature", resolution.Session.Token)
	require.NotNil(t, resolution.User)
	assert.Equal(t, "user-1", resolution.User.ID)
}

func TestResolveDevBypassWinsOverPrimary(t *testing.T) {
	f := newTestFixture(t,
		resolver.WithDevBuild(true),
		resolver.WithDevToggle(func() bool { return true }),
	)
	f.primary.account = primaryAccount(f.now)

	resolution := f.resolver.Resolve(context.Background())
	require.NotNil(t, resolution)
	assert.Equal(t, sessions.SourceDev, resolution.Session.Source)
	assert.Equal(t, resolver.DevToken, resolution.Session.Token)
	assert.Equal(t, 0, f.primary.calls, "dev bypass must short-circuit the primary lookup")
}

func TestResolveDevBypassRequiresDevBuild(t *testing.T) {
	f := newTestFixture(t,
		resolver.WithDevBuild(false),
		resolver.WithDevToggle(func() bool { return true }),
	)

	resolution := f.resolver.Resolve(context.Background())
	assert.Nil(t, resolution)
}

func TestResolveFallbackToken(t *testing.T) {
	f := newTestFixture(t)
	f.primary.err = errors.ErrSessionNotFound
	require.NoError(t, f.creds.Set(credstore.KeyGoogleSession, "stored123.sig"))

	resolution := f.resolver.Resolve(context.Background())
	require.NotNil(t, resolution)
	assert.Equal(t, sessions.SourceFallback, resolution.Session.Source)
	assert.Equal(t, "stored123.sig", resolution.Session.Token)
	assert.Nil(t, resolution.User, "fallback resolutions carry no identity")
	assert.Equal(t, f.now.Add(24*time.Hour), resolution.Session.ExpiresAt)
}

func TestResolvePrimaryErrorDegradesGracefully(t *testing.T) {
	f := newTestFixture(t)
	f.primary.err = errors.ErrInternal

	resolution := f.resolver.Resolve(context.Background())
	assert.Nil(t, resolution)
	assert.Equal(t, 1, f.primary.calls)
}

func TestResolveNoSources(t *testing.T) {
	f := newTestFixture(t)

	assert.Nil(t, f.resolver.Resolve(context.Background()))
}

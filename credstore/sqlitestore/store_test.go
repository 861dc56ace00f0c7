package sqlitecredstore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratoapp/go-session-gateway/credstore"
	sqlitecredstore "github.com/pratoapp/go-session-gateway/credstore/sqlitestore"
	"github.com/pratoapp/go-session-gateway/internal/errors"
)

func newStore(t *testing.T) *sqlitecredstore.Store {
	t.Helper()

	store, err := sqlitecredstore.Open(filepath.Join(t.TempDir(), "creds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSetGetRoundTrip(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Set(credstore.KeySessionToken, "tok123.sig"))

	value, err := store.Get(credstore.KeySessionToken)
	require.NoError(t, err)
	assert.Equal(t, "tok123.sig", value)
}

func TestSetOverwrites(t *testing.T) {
	store := newStore(t)

	require.NoError(t, store.Set(credstore.KeyGoogleSession, "old"))
	require.NoError(t, store.Set(credstore.KeyGoogleSession, "new"))

	value, err := store.Get(credstore.KeyGoogleSession)
	require.NoError(t, err)
	assert.Equal(t, "new", value)
}

func TestGetMissingSlot(t *testing.T) {
	store := newStore(t)

	_, err := store.Get(credstore.KeyLegacyCookie)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRemoveClearsAllSlots(t *testing.T) {
	store := newStore(t)
	for _, key := range credstore.AllKeys {
		require.NoError(t, store.Set(key, "value"))
	}

	require.NoError(t, store.Remove(credstore.AllKeys...))

	for _, key := range credstore.AllKeys {
		_, err := store.Get(key)
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	}
}

func TestRemoveAbsentSlotIsNotAnError(t *testing.T) {
	store := newStore(t)

	assert.NoError(t, store.Remove(credstore.KeySessionToken))
}

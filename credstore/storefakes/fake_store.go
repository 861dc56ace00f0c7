package fakecredstore

import (
	"sync"

	"github.com/pratoapp/go-session-gateway/credstore"
	"github.com/pratoapp/go-session-gateway/internal/errors"
)

var _ credstore.Store = (*FakeStore)(nil)

type FakeStore struct {
	values map[string]string
	lock   sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{values: make(map[string]string)}
}

func (fs *FakeStore) Get(key string) (string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	value, ok := fs.values[key]
	if !ok {
		return "", errors.ErrNotFound
	}
	return value, nil
}

func (fs *FakeStore) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.values[key] = value
	return nil
}

func (fs *FakeStore) Remove(keys ...string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	for _, key := range keys {
		delete(fs.values, key)
	}
	return nil
}

// Len reports how many slots hold a value. Test helper.
func (fs *FakeStore) Len() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return len(fs.values)
}

package fakekvrepo

import (
	"sync"

	"github.com/pratoapp/go-session-gateway/internal/errors"
	"github.com/pratoapp/go-session-gateway/kvsessions"
)

var _ kvsessions.Repo = (*FakeKVRepo)(nil)

type FakeKVRepo struct {
	values map[string][]byte
	lock   sync.RWMutex
}

func NewFakeKVRepo() *FakeKVRepo {
	return &FakeKVRepo{values: make(map[string][]byte)}
}

func (kr *FakeKVRepo) Put(key string, value []byte) error {
	kr.lock.Lock()
	defer kr.lock.Unlock()

	copied := make([]byte, len(value))
	copy(copied, value)
	kr.values[key] = copied
	return nil
}

func (kr *FakeKVRepo) Get(key string) ([]byte, error) {
	kr.lock.RLock()
	defer kr.lock.RUnlock()

	value, ok := kr.values[key]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return value, nil
}

func (kr *FakeKVRepo) Delete(key string) error {
	kr.lock.Lock()
	defer kr.lock.Unlock()

	delete(kr.values, key)
	return nil
}

// Len reports how many records the fake holds. Test helper.
func (kr *FakeKVRepo) Len() int {
	kr.lock.RLock()
	defer kr.lock.RUnlock()
	return len(kr.values)
}

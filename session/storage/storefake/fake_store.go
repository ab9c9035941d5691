package storefake

import (
	"sync"

	"github.com/salihate/backoffice/session/storage"
)

var _ storage.Store = (*FakeStore)(nil)

// FakeStore is an in-memory storage.Store for tests.
type FakeStore struct {
	entries map[string]string
	lock    sync.RWMutex

	// FailWrites makes every mutating call return an error, for
	// exercising partial-write defenses.
	FailWrites error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{entries: make(map[string]string)}
}

func (fs *FakeStore) Get(key string) (string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	value, ok := fs.entries[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (fs *FakeStore) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.FailWrites != nil {
		return fs.FailWrites
	}
	fs.entries[key] = value
	return nil
}

func (fs *FakeStore) SetMany(entries map[string]string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.FailWrites != nil {
		return fs.FailWrites
	}
	for key, value := range entries {
		fs.entries[key] = value
	}
	return nil
}

func (fs *FakeStore) Delete(key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.FailWrites != nil {
		return fs.FailWrites
	}
	delete(fs.entries, key)
	return nil
}

// Len reports the number of stored entries.
func (fs *FakeStore) Len() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return len(fs.entries)
}

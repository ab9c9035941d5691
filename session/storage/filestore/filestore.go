// Package filestore persists session entries as a single JSON document
// on disk, the client-side counterpart of the browser's local storage.
// With a passphrase configured the document is sealed at rest.
package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/salihate/backoffice/session/storage"
)

var _ storage.Store = (*FileStore)(nil)

type FileStore struct {
	path   string
	sealer *sealer

	entries map[string]string
	lock    sync.RWMutex
}

type Option func(*FileStore)

// WithPassphrase seals the stored document with a key derived from the
// given passphrase.
func WithPassphrase(passphrase string) Option {
	return func(fs *FileStore) {
		if passphrase != "" {
			fs.sealer = newSealer(passphrase)
		}
	}
}

// New opens (or prepares to create) the store at path. A missing file
// is an empty store; a corrupt or unreadable one is an error so the
// caller can decide whether to discard it.
func New(path string, options ...Option) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("[filestore.New] path is required")
	}

	fs := &FileStore{
		path:    path,
		entries: make(map[string]string),
	}
	for _, opt := range options {
		opt(fs)
	}

	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) Get(key string) (string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	value, ok := fs.entries[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

func (fs *FileStore) Set(key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	fs.entries[key] = value
	return fs.save()
}

func (fs *FileStore) SetMany(entries map[string]string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	for key, value := range entries {
		fs.entries[key] = value
	}
	return fs.save()
}

func (fs *FileStore) Delete(key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if _, ok := fs.entries[key]; !ok {
		return nil
	}
	delete(fs.entries, key)
	return fs.save()
}

type document struct {
	Entries map[string]string `json:"entries,omitempty"`

	// Sealed form
	Salt   string `json:"salt,omitempty"`
	Nonce  string `json:"nonce,omitempty"`
	Sealed string `json:"sealed,omitempty"`
}

func (fs *FileStore) load() error {
	raw, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "[FileStore.load] ReadFile")
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errors.Wrap(err, "[FileStore.load] Unmarshal")
	}

	if doc.Sealed != "" {
		if fs.sealer == nil {
			return errors.New("[FileStore.load] store is sealed but no passphrase configured")
		}
		entries, err := fs.sealer.open(doc)
		if err != nil {
			return errors.Wrap(err, "[FileStore.load] open sealed store")
		}
		fs.entries = entries
		return nil
	}

	if doc.Entries != nil {
		fs.entries = doc.Entries
	}
	return nil
}

// save writes the whole document through a temp file and rename, so a
// crash mid-write never leaves a partially persisted session behind.
func (fs *FileStore) save() error {
	var doc document
	if fs.sealer != nil {
		sealed, err := fs.sealer.seal(fs.entries)
		if err != nil {
			return errors.Wrap(err, "[FileStore.save] seal")
		}
		doc = sealed
	} else {
		doc = document{Entries: fs.entries}
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "[FileStore.save] Marshal")
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "[FileStore.save] MkdirAll")
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "[FileStore.save] CreateTemp")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return errors.Wrap(err, "[FileStore.save] Write")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "[FileStore.save] Close")
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return errors.Wrap(err, "[FileStore.save] Chmod")
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		return errors.Wrap(err, "[FileStore.save] Rename")
	}
	return nil
}

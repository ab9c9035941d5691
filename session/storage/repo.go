// Package storage defines the durable key-value store backing the
// session. Three entries make up a persisted session; they are written
// together on login and removed together on logout or authorization
// failure.
package storage

import "github.com/pkg/errors"

// Keys of the persisted session entries.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyIdentity     = "user"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("storage: key not found")

type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	// SetMany writes all entries atomically: either every entry is
	// persisted or none is.
	SetMany(entries map[string]string) error
	Delete(key string) error
}

// ClearSession removes every session entry. Missing keys are not an
// error; the first storage failure is returned after all deletes have
// been attempted.
func ClearSession(s Store) error {
	var firstErr error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeyIdentity} {
		if err := s.Delete(key); err != nil && !errors.Is(err, ErrNotFound) && firstErr == nil {
			firstErr = errors.Wrapf(err, "[storage.ClearSession] delete %q", key)
		}
	}
	return firstErr
}

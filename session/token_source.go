package session

import (
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// TokenSource adapts the stored credential pair to oauth2.TokenSource
// so the session can drive any oauth2-aware HTTP stack.
func (s *Store) TokenSource() oauth2.TokenSource {
	return tokenSource{store: s}
}

type tokenSource struct {
	store *Store
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	ts.store.lock.RLock()
	defer ts.store.lock.RUnlock()

	if ts.store.accessToken == "" {
		return nil, errors.Wrap(ErrNotAuthenticated, "[tokenSource.Token]")
	}
	return &oauth2.Token{
		AccessToken:  ts.store.accessToken,
		RefreshToken: ts.store.refreshToken,
		TokenType:    "Bearer",
	}, nil
}

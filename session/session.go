// Package session is the single source of truth for who is logged in.
// One Store exists per running app; it is constructed once and passed
// by reference to every consumer. Only Login, Logout and the 401
// interceptor write it.
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/salihate/backoffice/identity"
	"github.com/salihate/backoffice/session/storage"
	"github.com/salihate/backoffice/transport"
)

// Credentials are what the login form collects.
type Credentials struct {
	Identifier string // email
	Secret     string // password
}

type Store struct {
	repo storage.Store
	api  *transport.Client
	log  zerolog.Logger

	lock         sync.RWMutex
	identity     *identity.Identity
	accessToken  string
	refreshToken string

	subsLock sync.Mutex
	subs     map[int]func()
	nextSub  int
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.log = logger
	}
}

// New restores any persisted session from repo and registers the
// store's teardown hook on the transport's 401 interceptor.
func New(repo storage.Store, api *transport.Client, options ...Option) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[session.New] storage repo is required")
	}
	if api == nil {
		return nil, errors.New("[session.New] transport client is required")
	}

	store := &Store{
		repo: repo,
		api:  api,
		log:  zerolog.Nop(),
		subs: make(map[int]func()),
	}
	for _, opt := range options {
		opt(store)
	}

	store.restore()
	api.Auth().OnUnauthorized(store.handleUnauthorized)
	return store, nil
}

// restore loads the persisted session. Without an access token the
// persisted identity is discarded no matter what storage still holds;
// a half-written session must never present as authenticated.
func (s *Store) restore() {
	token, err := s.repo.Get(storage.KeyAccessToken)
	if err != nil || token == "" {
		return
	}

	rawIdentity, err := s.repo.Get(storage.KeyIdentity)
	if err != nil || rawIdentity == "" {
		return
	}

	var ident identity.Identity
	if err := json.Unmarshal([]byte(rawIdentity), &ident); err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable persisted identity")
		return
	}
	if !ident.Valid() {
		return
	}

	refresh, _ := s.repo.Get(storage.KeyRefreshToken)

	s.lock.Lock()
	s.identity = &ident
	s.accessToken = token
	s.refreshToken = refresh
	s.lock.Unlock()
}

type loginPayload struct {
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
	User         identity.Identity `json:"user"`
}

// Login is a single attempt against the backend; there is no retry or
// backoff, the user resubmits. On success the three session entries
// are persisted together before the in-memory state changes, so a
// storage failure leaves the store exactly as it was.
func (s *Store) Login(ctx context.Context, creds Credentials) (identity.Identity, error) {
	body := map[string]string{
		"email":    creds.Identifier,
		"password": creds.Secret,
	}

	env, err := s.api.Post(ctx, "/auth/login", body)
	if err != nil {
		if apiErr, ok := transport.AsAPIError(err); ok {
			if apiErr.Message != "" {
				return identity.Identity{}, errors.Wrap(ErrInvalidCredentials, apiErr.Message)
			}
			if apiErr.StatusCode == http.StatusUnauthorized {
				return identity.Identity{}, ErrInvalidCredentials
			}
		}
		return identity.Identity{}, errors.Wrap(err, "[Store.Login] POST /auth/login")
	}

	var payload loginPayload
	if env.Success && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return identity.Identity{}, errors.Wrap(err, "[Store.Login] decode login payload")
		}
	}
	if !env.Success || payload.AccessToken == "" || !payload.User.Valid() {
		if env.Message != "" {
			return identity.Identity{}, errors.Wrap(ErrInvalidCredentials, env.Message)
		}
		return identity.Identity{}, ErrInvalidCredentials
	}

	serialized, err := json.Marshal(payload.User)
	if err != nil {
		return identity.Identity{}, errors.Wrap(err, "[Store.Login] serialize identity")
	}
	if err := s.repo.SetMany(map[string]string{
		storage.KeyAccessToken:  payload.AccessToken,
		storage.KeyRefreshToken: payload.RefreshToken,
		storage.KeyIdentity:     string(serialized),
	}); err != nil {
		return identity.Identity{}, errors.Wrap(err, "[Store.Login] persist session")
	}

	s.lock.Lock()
	ident := payload.User
	s.identity = &ident
	s.accessToken = payload.AccessToken
	s.refreshToken = payload.RefreshToken
	s.lock.Unlock()

	s.notify()
	return ident, nil
}

// Logout tears the session down unconditionally. The backend call is
// best effort and a failure there never blocks the local teardown;
// calling Logout twice, or with no session at all, is harmless.
func (s *Store) Logout(ctx context.Context) {
	if s.IsAuthenticated() {
		if _, err := s.api.Post(ctx, "/auth/logout", nil); err != nil {
			s.log.Debug().Err(err).Msg("backend logout failed, clearing locally")
		}
	}

	if err := storage.ClearSession(s.repo); err != nil {
		s.log.Warn().Err(err).Msg("clearing persisted session")
	}

	s.lock.Lock()
	s.identity = nil
	s.accessToken = ""
	s.refreshToken = ""
	s.lock.Unlock()

	s.notify()
}

// handleUnauthorized is the 401 interceptor's hook. Persisted state is
// already gone by the time it runs; only the in-memory view and the
// subscribers remain to be dealt with.
func (s *Store) handleUnauthorized() {
	s.lock.Lock()
	hadSession := s.identity != nil || s.accessToken != ""
	s.identity = nil
	s.accessToken = ""
	s.refreshToken = ""
	s.lock.Unlock()

	if hadSession {
		s.notify()
	}
}

func (s *Store) CurrentIdentity() (identity.Identity, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.identity == nil || s.accessToken == "" {
		return identity.Identity{}, false
	}
	return *s.identity, true
}

// IsAuthenticated requires both the identity and the access token;
// either one alone is treated as no session at all.
func (s *Store) IsAuthenticated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.identity != nil && s.accessToken != ""
}

func (s *Store) AccessToken() (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.accessToken, s.accessToken != ""
}

// Subscribe registers a callback run after every session state change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func()) func() {
	s.subsLock.Lock()
	defer s.subsLock.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subsLock.Lock()
		defer s.subsLock.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.subsLock.Lock()
	subs := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsLock.Unlock()

	for _, fn := range subs {
		fn()
	}
}

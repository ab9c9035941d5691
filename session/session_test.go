package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/salihate/backoffice/identity"
	"github.com/salihate/backoffice/session"
	"github.com/salihate/backoffice/session/storage"
	"github.com/salihate/backoffice/session/storage/storefake"
	"github.com/salihate/backoffice/transport"
)

const (
	testEmail    = "admin@salihate.sn"
	testPassword = "password"
)

var testUser = identity.Identity{
	ID:       "u1",
	Nom:      "Diop",
	Prenom:   "Awa",
	Email:    testEmail,
	Role:     identity.RoleAdmin,
	IsActive: true,
}

type fixture struct {
	store   *storefake.FakeStore
	client  *transport.Client
	session *session.Store
	server  *httptest.Server

	navMu    sync.Mutex
	navCalls int

	logoutMu    sync.Mutex
	logoutCalls int
}

type backendBehavior struct {
	loginStatus int
	loginBody   string
	logoutFails bool

	// workersStatus lets tests force a 401 on an authenticated call.
	workersStatus int
}

func newFixture(t *testing.T, behavior backendBehavior) *fixture {
	t.Helper()

	f := &fixture{store: storefake.NewFakeStore()}

	router := chi.NewRouter()
	router.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if behavior.loginStatus != 0 && behavior.loginStatus != http.StatusOK {
			w.WriteHeader(behavior.loginStatus)
		}
		w.Write([]byte(behavior.loginBody))
	})
	router.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.logoutMu.Lock()
		f.logoutCalls++
		f.logoutMu.Unlock()
		if behavior.logoutFails {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"success":true}`))
	})
	router.Get("/workers", func(w http.ResponseWriter, r *http.Request) {
		if behavior.workersStatus != 0 {
			w.WriteHeader(behavior.workersStatus)
			return
		}
		w.Write([]byte(`{"success":true,"data":[]}`))
	})

	f.server = httptest.NewServer(router)
	t.Cleanup(f.server.Close)

	client, err := transport.New(f.server.URL, f.store, transport.WithNavigator(func() {
		f.navMu.Lock()
		defer f.navMu.Unlock()
		f.navCalls++
	}))
	require.NoError(t, err)
	f.client = client

	sess, err := session.New(f.store, client)
	require.NoError(t, err)
	f.session = sess
	return f
}

func (f *fixture) navigations() int {
	f.navMu.Lock()
	defer f.navMu.Unlock()
	return f.navCalls
}

func successLoginBody(t *testing.T, accessToken, refreshToken string) string {
	t.Helper()
	user, err := json.Marshal(testUser)
	require.NoError(t, err)
	return `{"success":true,"data":{"accessToken":"` + accessToken +
		`","refreshToken":"` + refreshToken + `","user":` + string(user) + `}}`
}

func TestNew_RequiresDependencies(t *testing.T) {
	f := newFixture(t, backendBehavior{loginBody: `{}`})

	_, err := session.New(nil, f.client)
	require.Error(t, err)
	require.Contains(t, err.Error(), "storage repo is required")

	_, err = session.New(f.store, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "transport client is required")
}

// TestLogin_Success covers the canonical scenario: login, then check
// state and that subsequent calls carry the bearer header.
func TestLogin_Success(t *testing.T) {
	f := newFixture(t, backendBehavior{loginBody: successLoginBody(t, "T1", "T2")})

	ident, err := f.session.Login(context.Background(), session.Credentials{
		Identifier: testEmail,
		Secret:     testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, testUser, ident)
	require.True(t, f.session.IsAuthenticated())

	access, err := f.store.Get(storage.KeyAccessToken)
	require.NoError(t, err)
	require.Equal(t, "T1", access)
	refresh, err := f.store.Get(storage.KeyRefreshToken)
	require.NoError(t, err)
	require.Equal(t, "T2", refresh)

	persisted, err := f.store.Get(storage.KeyIdentity)
	require.NoError(t, err)
	var stored identity.Identity
	require.NoError(t, json.Unmarshal([]byte(persisted), &stored))
	require.Equal(t, testUser, stored)
}

func TestLogin_BackendRejects(t *testing.T) {
	f := newFixture(t, backendBehavior{
		loginStatus: http.StatusBadRequest,
		loginBody:   `{"success":false,"message":"Identifiants invalides"}`,
	})

	_, err := f.session.Login(context.Background(), session.Credentials{
		Identifier: testEmail,
		Secret:     "wrong",
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, session.ErrInvalidCredentials))
	require.Contains(t, err.Error(), "Identifiants invalides")

	require.False(t, f.session.IsAuthenticated())
	require.Equal(t, 0, f.store.Len(), "no partial writes on failed login")
}

// TestLogin_RejectedWith401: some backend builds signal bad credentials
// with a plain 401. That is a failed login, not an expired session: the
// message comes back verbatim under ErrInvalidCredentials and nothing
// navigates.
func TestLogin_RejectedWith401(t *testing.T) {
	f := newFixture(t, backendBehavior{
		loginStatus: http.StatusUnauthorized,
		loginBody:   `{"success":false,"message":"Identifiants invalides"}`,
	})

	_, err := f.session.Login(context.Background(), session.Credentials{
		Identifier: testEmail,
		Secret:     "wrong",
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, session.ErrInvalidCredentials))
	require.Contains(t, err.Error(), "Identifiants invalides")

	require.False(t, f.session.IsAuthenticated())
	require.Equal(t, 0, f.store.Len())
	require.Equal(t, 0, f.navigations())
}

// TestLogin_SuccessFlagWithoutToken: success:true but an incomplete
// payload must leave the store untouched.
func TestLogin_SuccessFlagWithoutToken(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing token", body: `{"success":true,"data":{"user":{"id":"u1","email":"a@b.c","role":"ADMIN"}}}`},
		{name: "missing user", body: `{"success":true,"data":{"accessToken":"T1","refreshToken":"T2"}}`},
		{name: "success false", body: `{"success":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, backendBehavior{loginBody: tt.body})

			_, err := f.session.Login(context.Background(), session.Credentials{
				Identifier: testEmail,
				Secret:     testPassword,
			})
			require.Error(t, err)
			require.False(t, f.session.IsAuthenticated())
			require.Equal(t, 0, f.store.Len())
		})
	}
}

func TestLogin_PersistFailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, backendBehavior{loginBody: successLoginBody(t, "T1", "T2")})
	f.store.FailWrites = errors.New("disk full")

	_, err := f.session.Login(context.Background(), session.Credentials{
		Identifier: testEmail,
		Secret:     testPassword,
	})
	require.Error(t, err)
	require.False(t, f.session.IsAuthenticated())
}

// TestRestore_RoundTrip persists a session, builds a new store over
// the same storage and reads the identity back.
func TestRestore_RoundTrip(t *testing.T) {
	f := newFixture(t, backendBehavior{loginBody: successLoginBody(t, "T1", "T2")})

	_, err := f.session.Login(context.Background(), session.Credentials{
		Identifier: testEmail,
		Secret:     testPassword,
	})
	require.NoError(t, err)

	reloaded, err := session.New(f.store, f.client)
	require.NoError(t, err)
	require.True(t, reloaded.IsAuthenticated())

	ident, ok := reloaded.CurrentIdentity()
	require.True(t, ok)
	require.Equal(t, testUser, ident)

	token, ok := reloaded.AccessToken()
	require.True(t, ok)
	require.Equal(t, "T1", token)
}

// TestRestore_IdentityWithoutTokenDiscarded: a persisted identity with
// no access token is a partial write and must not authenticate.
func TestRestore_IdentityWithoutTokenDiscarded(t *testing.T) {
	store := storefake.NewFakeStore()
	user, err := json.Marshal(testUser)
	require.NoError(t, err)
	require.NoError(t, store.Set(storage.KeyIdentity, string(user)))

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)
	client, err := transport.New(server.URL, store)
	require.NoError(t, err)

	sess, err := session.New(store, client)
	require.NoError(t, err)
	require.False(t, sess.IsAuthenticated())

	_, ok := sess.CurrentIdentity()
	require.False(t, ok)
}

func TestRestore_CorruptIdentityDiscarded(t *testing.T) {
	store := storefake.NewFakeStore()
	require.NoError(t, store.Set(storage.KeyAccessToken, "T1"))
	require.NoError(t, store.Set(storage.KeyIdentity, "{not json"))

	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)
	client, err := transport.New(server.URL, store)
	require.NoError(t, err)

	sess, err := session.New(store, client)
	require.NoError(t, err)
	require.False(t, sess.IsAuthenticated())
}

// TestLogout_Idempotent: twice in a row, and with no session at all,
// always an empty session and never a panic.
func TestLogout_Idempotent(t *testing.T) {
	f := newFixture(t, backendBehavior{loginBody: successLoginBody(t, "T1", "T2")})

	ctx := context.Background()
	f.session.Logout(ctx) // no session yet
	require.False(t, f.session.IsAuthenticated())

	_, err := f.session.Login(ctx, session.Credentials{Identifier: testEmail, Secret: testPassword})
	require.NoError(t, err)

	f.session.Logout(ctx)
	f.session.Logout(ctx)
	require.False(t, f.session.IsAuthenticated())
	require.Equal(t, 0, f.store.Len())
}

// TestLogout_BackendFailureStillClears: the backend call is best
// effort, the local teardown is unconditional.
func TestLogout_BackendFailureStillClears(t *testing.T) {
	f := newFixture(t, backendBehavior{
		loginBody:   successLoginBody(t, "T1", "T2"),
		logoutFails: true,
	})

	ctx := context.Background()
	_, err := f.session.Login(ctx, session.Credentials{Identifier: testEmail, Secret: testPassword})
	require.NoError(t, err)

	f.session.Logout(ctx)
	require.False(t, f.session.IsAuthenticated())
	require.Equal(t, 0, f.store.Len())

	f.logoutMu.Lock()
	calls := f.logoutCalls
	f.logoutMu.Unlock()
	require.Equal(t, 1, calls)
}

// TestUnauthorized_ForcesLogout: a 401 on any resource call logs the
// whole session out and navigates exactly once.
func TestUnauthorized_ForcesLogout(t *testing.T) {
	f := newFixture(t, backendBehavior{
		loginBody:     successLoginBody(t, "T1", "T2"),
		workersStatus: http.StatusUnauthorized,
	})

	ctx := context.Background()
	_, err := f.session.Login(ctx, session.Credentials{Identifier: testEmail, Secret: testPassword})
	require.NoError(t, err)
	require.True(t, f.session.IsAuthenticated())

	_, err = f.client.Get(ctx, "/workers", nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, transport.ErrUnauthorized))

	require.False(t, f.session.IsAuthenticated())
	require.Equal(t, 0, f.store.Len())
	require.Equal(t, 1, f.navigations())
}

func TestSubscribe_NotifiedOnEveryStateChange(t *testing.T) {
	f := newFixture(t, backendBehavior{
		loginBody:     successLoginBody(t, "T1", "T2"),
		workersStatus: http.StatusUnauthorized,
	})

	notifications := 0
	unsubscribe := f.session.Subscribe(func() { notifications++ })

	ctx := context.Background()
	_, err := f.session.Login(ctx, session.Credentials{Identifier: testEmail, Secret: testPassword})
	require.NoError(t, err)
	require.Equal(t, 1, notifications)

	_, err = f.client.Get(ctx, "/workers", nil)
	require.Error(t, err)
	require.Equal(t, 2, notifications, "401 teardown notifies subscribers")

	f.session.Logout(ctx)
	require.Equal(t, 3, notifications)

	unsubscribe()
	_, err = f.session.Login(ctx, session.Credentials{Identifier: testEmail, Secret: testPassword})
	require.NoError(t, err)
	require.Equal(t, 3, notifications, "unsubscribed callback stays quiet")
}

func TestTokenSource(t *testing.T) {
	f := newFixture(t, backendBehavior{loginBody: successLoginBody(t, "T1", "T2")})

	_, err := f.session.TokenSource().Token()
	require.Error(t, err)
	require.True(t, errors.Is(err, session.ErrNotAuthenticated))

	_, err = f.session.Login(context.Background(), session.Credentials{Identifier: testEmail, Secret: testPassword})
	require.NoError(t, err)

	token, err := f.session.TokenSource().Token()
	require.NoError(t, err)
	require.Equal(t, "T1", token.AccessToken)
	require.Equal(t, "T2", token.RefreshToken)
	require.Equal(t, "Bearer", token.TokenType)
}

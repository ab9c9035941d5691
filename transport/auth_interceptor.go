package transport

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/salihate/backoffice/session/storage"
)

// Navigator forces the UI back to the entry screen. It is the
// file-download era's window.location: the transport calls it at most
// once per session-teardown event, never letting a second in-flight
// 401 navigate again.
type Navigator func()

// AuthInterceptor is the one place that touches session state from the
// request path. On the way out it attaches the persisted access token
// as a bearer header; on the way in, a 401 from any endpoint clears
// the whole persisted session and navigates to the root. The store it
// is allowed to clear is an explicit construction-time dependency.
type AuthInterceptor struct {
	store    storage.Store
	navigate Navigator

	hooks    []func()
	hooksMu  sync.RWMutex
	tornDown atomic.Bool
}

func NewAuthInterceptor(store storage.Store, navigate Navigator) *AuthInterceptor {
	return &AuthInterceptor{store: store, navigate: navigate}
}

// Prepare runs on every outgoing request without exception and reports
// whether a bearer token was attached. Seeing a stored token re-arms
// the teardown guard: the next expiry event gets its own single
// navigation.
func (ai *AuthInterceptor) Prepare(req *http.Request) bool {
	token, err := ai.store.Get(storage.KeyAccessToken)
	if err != nil || token == "" {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+token)
	ai.tornDown.Store(false)
	return true
}

// HandleStatus runs on every response. Only a 401 on a request that
// went out with a bearer token is acted on: that is an existing session
// expiring. A 401 on an unauthenticated call (a rejected login) is the
// call's own failure and there is no session to tear down.
func (ai *AuthInterceptor) HandleStatus(status int, authed bool) {
	if status != http.StatusUnauthorized || !authed {
		return
	}

	// Idempotent: concurrent in-flight requests expiring together each
	// land here; the storage clear and hooks tolerate repeats, the
	// navigation does not and is guarded.
	if err := storage.ClearSession(ai.store); err != nil {
		log.Warn().Err(err).Msg("clearing session after 401")
	}

	ai.hooksMu.RLock()
	hooks := ai.hooks
	ai.hooksMu.RUnlock()
	for _, hook := range hooks {
		hook()
	}

	if ai.tornDown.CompareAndSwap(false, true) && ai.navigate != nil {
		ai.navigate()
	}
}

// OnUnauthorized registers a hook run after the persisted session is
// cleared, before navigation. The session store uses this to drop its
// in-memory identity and notify subscribers.
func (ai *AuthInterceptor) OnUnauthorized(hook func()) {
	ai.hooksMu.Lock()
	defer ai.hooksMu.Unlock()
	ai.hooks = append(ai.hooks, hook)
}

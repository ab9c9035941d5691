// Package transport is the single authenticated channel to the back
// office API. Every resource client goes through it; the bearer
// injection and the global 401 teardown apply to every call with no
// exceptions.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/salihate/backoffice/session/storage"
)

type Client struct {
	baseURL string
	http    *http.Client
	auth    *AuthInterceptor
	log     zerolog.Logger
}

type Option func(*Client)

// WithNavigator sets the callback invoked once per 401 teardown event.
func WithNavigator(navigate Navigator) Option {
	return func(c *Client) {
		c.auth.navigate = navigate
	}
}

// WithTimeout bounds every request. The default is no client-side
// timeout: failure is detected through the response or a network
// error, never a local deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.log = logger
	}
}

// New builds the channel. store is the persisted session the auth
// interceptor reads tokens from and is allowed to clear on 401.
func New(baseURL string, store storage.Store, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[transport.New] baseURL is required")
	}
	if store == nil {
		return nil, errors.New("[transport.New] store is required")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "[transport.New] cookiejar.New")
	}

	client := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Jar: jar},
		auth:    NewAuthInterceptor(store, nil),
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// Auth exposes the interceptor so the session store can register its
// teardown hook.
func (c *Client) Auth() *AuthInterceptor {
	return c.auth
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Envelope, error) {
	return c.doJSON(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.doJSON(ctx, http.MethodPost, path, nil, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.doJSON(ctx, http.MethodPut, path, nil, body)
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Envelope, error) {
	return c.doJSON(ctx, http.MethodPatch, path, nil, body)
}

func (c *Client) Delete(ctx context.Context, path string) (*Envelope, error) {
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// GetBinary fetches a binary payload (PDF bulletins and receipts).
func (c *Client) GetBinary(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// PostBinary issues a mutating call whose response is a binary payload.
func (c *Client) PostBinary(ctx context.Context, path string, body any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any) (*Envelope, error) {
	raw, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &Envelope{Success: true}, nil
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrapf(err, "[Client.doJSON] decode response for %s %s", method, path)
	}
	return &env, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrapf(err, "[Client.do] marshal body for %s %s", method, path)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.do] build request %s %s", method, path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, application/pdf")
	req.Header.Set("X-Request-Id", uuid.New().String())

	authed := c.auth.Prepare(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.do] %s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Client.do] read response of %s %s", method, path)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("api call")

	c.auth.HandleStatus(resp.StatusCode, authed)

	// A 401 on an unauthenticated call is the endpoint refusing the
	// call itself (a rejected login), not an expired session; it falls
	// through to APIError so the backend's message survives.
	if resp.StatusCode == http.StatusUnauthorized && authed {
		return nil, errors.Wrapf(ErrUnauthorized, "%s %s", method, path)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: backendMessage(raw)}
	}
	return raw, nil
}

func backendMessage(raw []byte) string {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.Message
}

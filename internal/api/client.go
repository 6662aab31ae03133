// Package api is the authenticated gateway to the WealthPlanner backend.
//
// Every authenticated request reads the access token fresh from the
// credential store, so a token rotated by a concurrent refresh is picked up
// even for requests issued back to back. A 401 response, and only a 401,
// enters the refresh protocol: at most one refresh call is in flight at any
// time, later 401s queue on it, and every blocked request is replayed once
// with the new token or fails uniformly when the refresh fails.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/wealthplanner/budget_bot/internal/token"
)

const defaultTimeout = 15 * time.Second

// Client talks to the backend on behalf of one user.
type Client struct {
	base   string
	http   *http.Client
	tokens token.Store

	// Single-flight refresh state, owned by the client and never exposed.
	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshResult
}

type refreshResult struct {
	access string
	err    error
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient swaps the underlying transport, used by tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a gateway for the API at base (without the /api prefix).
func NewClient(base string, tokens token.Store, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: defaultTimeout},
		tokens: tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues an authenticated request and decodes the response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.send(ctx, method, path, query, body, out, false)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any, retried bool) error {
	status, data, usedAccess, err := c.roundTrip(ctx, method, path, query, body, true)
	if err != nil {
		// Network errors never enter the refresh protocol.
		return err
	}

	if status == http.StatusUnauthorized {
		if retried {
			// Already replayed once after a refresh; a second 401 means the
			// server will not accept the new token either.
			return ErrSessionExpired
		}
		if _, err := c.refreshAccess(ctx, usedAccess); err != nil {
			return err
		}
		return c.send(ctx, method, path, query, body, out, true)
	}

	if status >= 400 {
		return decodeError(status, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// public issues a request to an unauthenticated endpoint (credential
// issuance). No token is attached and a 401 is a plain rejection, not a
// trigger for the refresh protocol.
func (c *Client) public(ctx context.Context, method, path string, body, out any) error {
	status, data, _, err := c.roundTrip(ctx, method, path, nil, body, false)
	if err != nil {
		return err
	}
	if status >= 400 {
		return decodeError(status, data)
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body any, authed bool) (int, []byte, string, error) {
	u := c.base + "/api/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, "", fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return 0, nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var access string
	if authed {
		// Always read the current token from the store, never from a
		// variable captured before a suspension point.
		access, err = c.tokens.Get(ctx, token.AccessToken)
		if err != nil {
			return 0, nil, "", fmt.Errorf("read access token: %w", err)
		}
		if access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, access, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, access, err
	}
	return resp.StatusCode, data, access, nil
}

// refreshAccess runs the single-flight refresh protocol. The first caller
// performs the exchange; everyone arriving while it is in flight queues as
// a waiter and shares the outcome. stale is the token the rejected request
// carried: when the store already holds a different one, another caller
// finished a refresh while our request was in flight, so we retry with the
// rotated token instead of burning the refresh credential again.
func (c *Client) refreshAccess(ctx context.Context, stale string) (string, error) {
	if current, err := c.tokens.Get(ctx, token.AccessToken); err == nil && current != "" && current != stale {
		return current, nil
	}

	c.mu.Lock()
	if c.refreshing {
		ch := make(chan refreshResult, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()

		select {
		case res := <-ch:
			return res.access, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.refreshing = true
	c.mu.Unlock()

	access, err := c.exchangeRefreshToken(ctx)

	c.mu.Lock()
	c.refreshing = false
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- refreshResult{access: access, err: err}
	}
	return access, err
}

// exchangeRefreshToken trades the stored refresh token for a new pair.
// Any failure clears the credential pair: the session is over and the
// caller has to log in again.
func (c *Client) exchangeRefreshToken(ctx context.Context) (string, error) {
	refresh, err := c.tokens.Get(ctx, token.RefreshToken)
	if err != nil || refresh == "" {
		c.dropCredentials(ctx)
		return "", ErrSessionExpired
	}

	var pair CredentialPair
	err = c.public(ctx, http.MethodPost, "token/refresh/", map[string]string{"refresh": refresh}, &pair)
	if err != nil {
		log.Printf("api: token refresh failed: %v", err)
		c.dropCredentials(ctx)
		return "", ErrSessionExpired
	}

	if err := c.tokens.SetPair(ctx, pair.Access, pair.Refresh); err != nil {
		c.dropCredentials(ctx)
		return "", ErrSessionExpired
	}
	return pair.Access, nil
}

// StoreCredentials persists a freshly issued pair, e.g. after login or
// registration.
func (c *Client) StoreCredentials(ctx context.Context, pair CredentialPair) error {
	return c.tokens.SetPair(ctx, pair.Access, pair.Refresh)
}

func (c *Client) dropCredentials(ctx context.Context) {
	if err := c.tokens.Clear(ctx); err != nil {
		log.Printf("api: clear credentials: %v", err)
	}
}

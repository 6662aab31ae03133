package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthplanner/budget_bot/internal/token"
)

// memStore is an in-memory token.Store for exercising the refresh
// protocol without touching disk.
type memStore struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newMemStore(access, refresh string) *memStore {
	s := &memStore{tokens: map[string]string{}}
	if access != "" {
		s.tokens[token.AccessToken] = access
		s.tokens[token.RefreshToken] = refresh
	}
	return s
}

func (s *memStore) Get(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[name], nil
}

func (s *memStore) SetPair(_ context.Context, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.AccessToken] = access
	s.tokens[token.RefreshToken] = refresh
	return nil
}

func (s *memStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]string{}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestAttachesFreshTokenFromStore(t *testing.T) {
	store := newMemStore("A1", "R1")

	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, store)
	require.NoError(t, c.do(context.Background(), http.MethodGet, "dashboard/", nil, nil, nil))
	assert.Equal(t, "Bearer A1", seen)

	// Rotate the pair out of band; the next request must carry the new
	// token without any refresh happening.
	require.NoError(t, store.SetPair(context.Background(), "A2", "R2"))
	require.NoError(t, c.do(context.Background(), http.MethodGet, "dashboard/", nil, nil, nil))
	assert.Equal(t, "Bearer A2", seen)
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	store := newMemStore("A1", "R1")

	var refreshCalls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/token/refresh/":
			atomic.AddInt64(&refreshCalls, 1)
			var body struct {
				Refresh string `json:"refresh"`
			}
			if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
				assert.Equal(t, "R1", body.Refresh)
			}
			// Hold the exchange open so later 401s queue as waiters.
			time.Sleep(150 * time.Millisecond)
			writeJSON(w, http.StatusOK, CredentialPair{Access: "A2", Refresh: "R2"})
		case "/api/dashboard/":
			if r.Header.Get("Authorization") == "Bearer A2" {
				writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
				return
			}
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token is expired"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, store)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.do(context.Background(), http.MethodGet, "dashboard/", nil, nil, nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.EqualValues(t, 1, atomic.LoadInt64(&refreshCalls))

	access, _ := store.Get(context.Background(), token.AccessToken)
	refresh, _ := store.Get(context.Background(), token.RefreshToken)
	assert.Equal(t, "A2", access)
	assert.Equal(t, "R2", refresh)
}

func TestSecond401AfterRefreshExpiresSession(t *testing.T) {
	store := newMemStore("A1", "R1")

	var refreshCalls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/token/refresh/":
			atomic.AddInt64(&refreshCalls, 1)
			writeJSON(w, http.StatusOK, CredentialPair{Access: "A2", Refresh: "R2"})
		default:
			// The server rejects even the rotated token.
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token is expired"})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, store)
	err := c.do(context.Background(), http.MethodGet, "dashboard/", nil, nil, nil)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.EqualValues(t, 1, atomic.LoadInt64(&refreshCalls), "a replayed request must never trigger a second refresh")
}

func TestRefreshFailureClearsCredentialsAndFailsAllWaiters(t *testing.T) {
	store := newMemStore("A1", "R1")

	var refreshCalls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/token/refresh/":
			atomic.AddInt64(&refreshCalls, 1)
			time.Sleep(150 * time.Millisecond)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token is invalid"})
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token is expired"})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, store)

	const n = 5
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.do(context.Background(), http.MethodGet, "dashboard/", nil, nil, nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.ErrorIs(t, err, ErrSessionExpired, "request %d", i)
	}
	assert.EqualValues(t, 1, atomic.LoadInt64(&refreshCalls))

	access, _ := store.Get(context.Background(), token.AccessToken)
	refresh, _ := store.Get(context.Background(), token.RefreshToken)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestNetworkErrorSkipsRefreshProtocol(t *testing.T) {
	store := newMemStore("A1", "R1")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/token/refresh/" {
			t.Error("refresh must not be attempted on a network failure")
		}
	}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, store)
	err := c.do(context.Background(), http.MethodGet, "dashboard/", nil, nil, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionExpired)

	// Credentials survive a flaky network.
	access, _ := store.Get(context.Background(), token.AccessToken)
	assert.Equal(t, "A1", access)
}

func TestValidationErrorCarriesServerMessage(t *testing.T) {
	store := newMemStore("A1", "R1")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Amount must be positive"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, store)
	err := c.do(context.Background(), http.MethodPost, "transactions/", nil, map[string]string{}, nil)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Amount must be positive", apiErr.Message)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestFieldErrorMapIsFlattened(t *testing.T) {
	store := newMemStore("", "")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"pin": {"PIN must be 6 digits."}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, store)
	_, err := c.Register(context.Background(), "+15550100", "12", "Dana")
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "pin: PIN must be 6 digits.", apiErr.Message)
}

func TestPublicEndpointRejectionIsNotSessionExpiry(t *testing.T) {
	store := newMemStore("", "")

	var refreshCalls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/token/refresh/":
			atomic.AddInt64(&refreshCalls, 1)
		case "/api/auth/login-pin/":
			assert.Empty(t, r.Header.Get("Authorization"))
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid PIN"})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, store)
	_, err := c.LoginPIN(context.Background(), "+15550100", "0000")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionExpired)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid PIN", apiErr.Message)
	assert.Zero(t, atomic.LoadInt64(&refreshCalls))
}

func TestStoreCredentialsPersistsIssuedPair(t *testing.T) {
	store := newMemStore("", "")
	c := NewClient("http://unused", store)

	require.NoError(t, c.StoreCredentials(context.Background(), CredentialPair{Access: "A1", Refresh: "R1"}))

	access, _ := store.Get(context.Background(), token.AccessToken)
	refresh, _ := store.Get(context.Background(), token.RefreshToken)
	assert.Equal(t, "A1", access)
	assert.Equal(t, "R1", refresh)
}

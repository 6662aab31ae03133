// Package session holds the process-wide authenticated session.
//
// The manager records the outcomes of login, registration, setup and
// logout; the network calls that produce those outcomes belong to the
// caller. Whether the session is authenticated is derived from credential
// presence in the token store, never stored as an independent flag.
package session

import (
	"context"
	"log"
	"sync"

	"github.com/wealthplanner/budget_bot/internal/model"
	"github.com/wealthplanner/budget_bot/internal/token"
)

// Manager is the single authority for the current session.
type Manager struct {
	tokens token.Store

	mu        sync.Mutex
	user      *model.UserProfile
	isNewUser bool
}

// NewManager builds an empty, unauthenticated session over the store.
func NewManager(tokens token.Store) *Manager {
	return &Manager{tokens: tokens}
}

// Authenticated reports whether a credential pair is currently stored.
// Token validity is discovered lazily, on the first API call.
func (m *Manager) Authenticated(ctx context.Context) bool {
	access, err := m.tokens.Get(ctx, token.AccessToken)
	if err != nil {
		return false
	}
	return access != ""
}

// Restore populates the session from a rehydrated snapshot. Without a
// stored credential pair the cached profile is useless and the session
// stays empty. No network validation happens here.
func (m *Manager) Restore(ctx context.Context, user *model.UserProfile, isNewUser bool) {
	if user == nil || !m.Authenticated(ctx) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = user
	m.isNewUser = isNewUser
}

// Login records a successful credential issuance.
func (m *Manager) Login(user model.UserProfile, isNewUser bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = &user
	m.isNewUser = isNewUser
}

// CompleteSetup records a finished first-run profile setup.
func (m *Manager) CompleteSetup(user model.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = &user
	m.isNewUser = false
}

// UpdateProfile records a profile fetch or edit.
func (m *Manager) UpdateProfile(user model.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = &user
}

// Logout empties the session and clears the stored credential pair.
// Calling it twice is the same as calling it once.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.user = nil
	m.isNewUser = false
	m.mu.Unlock()

	if err := m.tokens.Clear(ctx); err != nil {
		log.Printf("session: clear credentials on logout: %v", err)
	}
}

// User returns a copy of the cached profile, or nil when logged out.
func (m *Manager) User() *model.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// IsNewUser reports whether the first-run setup is still pending.
func (m *Manager) IsNewUser() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isNewUser
}

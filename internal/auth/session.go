package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Static errors for err113 compliance.
var (
	ErrNoSessionPersister = errors.New("no session persister configured")
	ErrEmptyCSRFToken     = errors.New("server returned an empty csrf token")
)

// CSRFFetcher asks the backend for a fresh CSRF token.
type CSRFFetcher func(ctx context.Context) (string, error)

// SessionPersister saves session credentials, usually into the CLI config.
type SessionPersister interface {
	UpdateSession(apiEndpoint, sessionID, csrfToken string) error
}

// SessionManager hands out the CSRF token of the current session, fetching
// it once when missing. Concurrent callers share one fetch.
type SessionManager struct {
	store       *TokenStore
	fetch       CSRFFetcher
	group       singleflight.Group
	persister   SessionPersister
	apiEndpoint string
	mutex       sync.Mutex
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithPersister saves the session through persister on Persist.
func WithPersister(apiEndpoint string, persister SessionPersister) SessionOption {
	return func(m *SessionManager) {
		m.apiEndpoint = apiEndpoint
		m.persister = persister
	}
}

// WithInitialToken seeds the manager with a known session.
func WithInitialToken(sessionID, csrfToken string) SessionOption {
	return func(m *SessionManager) {
		if sessionID == "" && csrfToken == "" {
			return
		}

		m.store.Set(&Token{Value: csrfToken, SessionID: sessionID})
	}
}

// NewSessionManager creates a manager that uses fetch when no valid token is
// stored.
func NewSessionManager(fetch CSRFFetcher, opts ...SessionOption) *SessionManager {
	manager := &SessionManager{
		store: NewTokenStore(),
		fetch: fetch,
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

// CSRFToken returns a valid token, fetching one if necessary.
func (m *SessionManager) CSRFToken(ctx context.Context) (string, error) {
	if token := m.store.Get(); token.Valid() {
		return token.Value, nil
	}

	value, err, _ := m.group.Do("csrf", func() (interface{}, error) {
		if token := m.store.Get(); token.Valid() {
			return token.Value, nil
		}

		fresh, err := m.fetch(ctx)
		if err != nil {
			return "", fmt.Errorf("fetching csrf token: %w", err)
		}

		if fresh == "" {
			return "", ErrEmptyCSRFToken
		}

		m.SetToken(fresh)

		return fresh, nil
	})
	if err != nil {
		return "", err
	}

	token, _ := value.(string)

	return token, nil
}

// Invalidate drops the CSRF token so that the next call fetches a new one.
// The session ID is kept.
func (m *SessionManager) Invalidate() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	current := m.store.Get()
	if current == nil {
		return
	}

	m.store.Set(&Token{SessionID: current.SessionID})
}

// SetToken stores value as the CSRF token of the current session.
func (m *SessionManager) SetToken(value string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	next := &Token{Value: value}
	if current := m.store.Get(); current != nil {
		next.SessionID = current.SessionID
	}

	m.store.Set(next)
}

// SetSession records the session cookie value.
func (m *SessionManager) SetSession(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	next := &Token{SessionID: sessionID}
	if current := m.store.Get(); current != nil {
		next.Value = current.Value
		next.ExpiresAt = current.ExpiresAt
	}

	m.store.Set(next)
}

// Session returns the current session ID and CSRF token.
func (m *SessionManager) Session() (string, string) {
	current := m.store.Get()
	if current == nil {
		return "", ""
	}

	return current.SessionID, current.Value
}

// Clear forgets the session.
func (m *SessionManager) Clear() {
	m.store.Clear()
}

// Persist saves the current session.
func (m *SessionManager) Persist() error {
	if m.persister == nil {
		return ErrNoSessionPersister
	}

	sessionID, csrfToken := m.Session()

	err := m.persister.UpdateSession(m.apiEndpoint, sessionID, csrfToken)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

package auth

import (
	"sync"
	"time"
)

// expiryBuffer treats tokens as expired slightly before their deadline.
const expiryBuffer = 30 * time.Second

// Token is a CSRF token together with the session it belongs to.
type Token struct {
	Value     string
	SessionID string
	ExpiresAt time.Time
}

// Valid reports whether the token can be sent. A zero ExpiresAt never expires.
func (t *Token) Valid() bool {
	if t == nil || t.Value == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(expiryBuffer).Before(t.ExpiresAt)
}

// TokenStore holds the current token.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the stored token or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set replaces the stored token.
func (s *TokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Clear removes the stored token.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
}

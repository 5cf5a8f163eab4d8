// Package token holds the bearer token of the current session.
//
// The Store is the single place the API client reads the Authorization
// header from; exactly one token is active at a time and setting a new one
// replaces the previous one. There is no refresh logic here: an expired or
// rejected token surfaces to the caller as a session-expired error.
package token

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Store is safe for concurrent use. The zero value is an empty store.
type Store struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

func NewStore() *Store {
	return &Store{}
}

// SetToken makes tok the active token. An empty tok clears the store.
func (s *Store) SetToken(tok string) {
	if tok == "" {
		s.ClearToken()
		return
	}
	exp, _ := ParseExpiry(tok)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tok
	s.expiresAt = exp
}

func (s *Store) ClearToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}

// Token returns the active token and whether one is set.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// ExpiresAt returns the exp claim of the active token, when it carries one.
func (s *Store) ExpiresAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt, !s.expiresAt.IsZero()
}

// Expired reports whether the active token has a known expiry at or before now.
// Opaque tokens never report as expired.
func (s *Store) Expired(now time.Time) bool {
	exp, ok := s.ExpiresAt()
	return ok && !now.Before(exp)
}

// ParseExpiry reads the exp claim of a JWT without verifying its signature;
// the client has no key and only uses the value to avoid sending a token the
// server would reject anyway. ok is false for opaque tokens or a missing exp.
func ParseExpiry(tok string) (exp time.Time, ok bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

package auth

import (
	"strings"
	"sync"
	"time"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Session holds the admin API credential for the lifetime of a login.
// JWT credentials expire with their exp claim; opaque tokens live until cleared.
type Session struct {
	mu        sync.RWMutex
	token     string
	subject   string
	expiresAt time.Time
	clock     Clock
}

// NewSession constructs an empty session.
func NewSession(clock Clock) *Session {
	if clock == nil {
		clock = systemClock{}
	}
	return &Session{clock: clock}
}

// Set stores a credential. JWTs that are already expired or carry a non-admin role are rejected.
func (s *Session) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	var (
		subject   string
		expiresAt time.Time
	)
	if claims, ok := inspectUnverified(token); ok {
		if claims.Role != "" && claims.Role != string(RoleAdmin) {
			return ErrForbidden
		}
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
			if !s.clock.Now().Before(expiresAt) {
				return ErrTokenExpired
			}
		}
		subject = claims.Subject
		if subject == "" {
			subject = claims.Email
		}
	}
	s.mu.Lock()
	s.token = token
	s.subject = subject
	s.expiresAt = expiresAt
	s.mu.Unlock()
	return nil
}

// Clear drops the credential.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.subject = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

// Token returns the credential, or "" when none is present or it expired.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return ""
	}
	if !s.expiresAt.IsZero() && !s.clock.Now().Before(s.expiresAt) {
		return ""
	}
	return s.token
}

// Active reports whether a usable credential is present.
func (s *Session) Active() bool {
	return s.Token() != ""
}

// Subject returns the subject of a JWT credential, if any.
func (s *Session) Subject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subject
}

// ExpiresAt returns the credential expiry; zero when unknown.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func platformToken(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	claims := Claims{
		Role:  role,
		Email: "admin@shop.test",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("platform-secret"))
	require.NoError(t, err)
	return signed
}

func TestSession_EmptyIsInactive(t *testing.T) {
	s := NewSession(nil)
	assert.False(t, s.Active())
	assert.Equal(t, "", s.Token())
	assert.ErrorIs(t, s.Set("  "), ErrInvalidToken)
}

func TestSession_OpaqueTokenLivesUntilCleared(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.Set("opaque-token"))
	assert.True(t, s.Active())
	assert.Equal(t, "opaque-token", s.Token())
	assert.True(t, s.ExpiresAt().IsZero())

	s.Clear()
	assert.False(t, s.Active())
}

func TestSession_JWTExpiry(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	s := NewSession(clock)
	token := platformToken(t, "admin", clock.now.Add(time.Hour))

	require.NoError(t, s.Set(token))
	assert.True(t, s.Active())
	assert.Equal(t, "admin@shop.test", s.Subject())

	clock.now = clock.now.Add(2 * time.Hour)
	assert.False(t, s.Active())
	assert.Equal(t, "", s.Token())

	assert.ErrorIs(t, s.Set(token), ErrTokenExpired)
}

func TestSession_RejectsNonAdminJWT(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	s := NewSession(clock)
	assert.ErrorIs(t, s.Set(platformToken(t, "customer", clock.now.Add(time.Hour))), ErrForbidden)
	assert.False(t, s.Active())
}

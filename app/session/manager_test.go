package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-0123456789"

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestManager(t *testing.T, c *clock) *Manager {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("namaste"), bcrypt.MinCost)
	require.NoError(t, err)

	m, err := NewManager(Options{
		Secret:       []byte(testSecret),
		PasswordHash: hash,
		TTL:          time.Hour,
		LoginRate:    1,
		LoginBurst:   3,
		Now:          c.now,
	})
	require.NoError(t, err)
	return m
}

func TestGuard(t *testing.T) {
	assert.Equal(t, Decision{Allow: true}, Guard(true))
	assert.Equal(t, Decision{Allow: false, Redirect: "/admin"}, Guard(false))
}

func TestSessionContext(t *testing.T) {
	assert.False(t, FromContext(context.Background()).Authenticated)

	ctx := WithSession(context.Background(), Session{Authenticated: true, Subject: "admin"})
	assert.True(t, FromContext(ctx).Authenticated)
}

func TestManager_LoginAuthenticateLogout(t *testing.T) {
	c := &clock{t: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	m := newTestManager(t, c)

	token, err := m.Login("namaste", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, c.t.Add(time.Hour), token.ExpiresAt)

	s, err := m.Authenticate(token.Value)
	require.NoError(t, err)
	assert.True(t, s.Authenticated)
	assert.Equal(t, "admin", s.Subject)
	assert.NotEmpty(t, s.TokenID)

	require.NoError(t, m.Logout(token.Value))

	s, err = m.Authenticate(token.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.False(t, s.Authenticated)
}

func TestManager_WrongPassword(t *testing.T) {
	m := newTestManager(t, &clock{t: time.Now()})

	_, err := m.Login("wrong", "10.0.0.2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestManager_TokenExpires(t *testing.T) {
	c := &clock{t: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	m := newTestManager(t, c)

	token, err := m.Login("namaste", "10.0.0.3")
	require.NoError(t, err)

	c.t = c.t.Add(2 * time.Hour)

	_, err = m.Authenticate(token.Value)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsForeignTokens(t *testing.T) {
	m := newTestManager(t, &clock{t: time.Now()})

	_, err := m.Authenticate("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Authenticate("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        "x",
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString([]byte("another-secret-value"))
	require.NoError(t, err)

	_, err = m.Authenticate(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_LoginRateLimit(t *testing.T) {
	c := &clock{t: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}
	m := newTestManager(t, c)

	for i := 0; i < 3; i++ {
		_, err := m.Login("wrong", "10.0.0.4")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err := m.Login("namaste", "10.0.0.4")
	assert.ErrorIs(t, err, ErrRateLimited)

	_, err = m.Login("namaste", "10.0.0.5")
	assert.NoError(t, err)

	c.t = c.t.Add(2 * time.Second)
	_, err = m.Login("namaste", "10.0.0.4")
	assert.NoError(t, err)
}

func TestNewManager_Validation(t *testing.T) {
	_, err := NewManager(Options{PasswordHash: []byte("x")})
	assert.Error(t, err)

	_, err = NewManager(Options{Secret: []byte(testSecret), PasswordHash: []byte("plain")})
	assert.Error(t, err)

	hash, err := HashPassword("namaste")
	require.NoError(t, err)
	_, err = NewManager(Options{Secret: []byte(testSecret), PasswordHash: hash})
	assert.NoError(t, err)
}

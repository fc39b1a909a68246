package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("too many login attempts")
	ErrInvalidToken       = errors.New("invalid session token")
)

const adminSubject = "admin"

// Claims are the signed contents of a session token
type Claims struct {
	jwt.RegisteredClaims
}

// Token is an issued session token
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Options struct {
	Secret       []byte
	PasswordHash []byte
	TTL          time.Duration
	LoginRate    float64 // attempts per second per client
	LoginBurst   int
	Now          func() time.Time
}

// Manager issues, verifies and revokes admin session tokens
type Manager struct {
	secret       []byte
	passwordHash []byte
	ttl          time.Duration
	limiters     *limiterCache
	now          func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewManager(opts Options) (*Manager, error) {
	if len(opts.Secret) == 0 {
		return nil, fmt.Errorf("session secret is required")
	}
	if _, err := bcrypt.Cost(opts.PasswordHash); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}
	if opts.TTL <= 0 {
		opts.TTL = 12 * time.Hour
	}
	if opts.LoginRate <= 0 {
		opts.LoginRate = 0.2
	}
	if opts.LoginBurst <= 0 {
		opts.LoginBurst = 5
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Manager{
		secret:       opts.Secret,
		passwordHash: opts.PasswordHash,
		ttl:          opts.TTL,
		limiters:     newLimiterCache(opts.LoginRate, opts.LoginBurst, opts.Now),
		now:          opts.Now,
		revoked:      make(map[string]time.Time),
	}, nil
}

func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// Login checks the admin password and issues a session token
func (m *Manager) Login(password, clientIP string) (Token, error) {
	if !m.limiters.allow(clientIP) {
		slog.Warn("Login rate limited", "client_ip", clientIP)
		return Token{}, ErrRateLimited
	}

	if err := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)); err != nil {
		slog.Warn("Login attempt failed", "client_ip", clientIP)
		return Token{}, ErrInvalidCredentials
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   adminSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	slog.Info("Admin logged in", "client_ip", clientIP, "expires_at", expiresAt)

	return Token{Value: signed, ExpiresAt: expiresAt}, nil
}

// Authenticate verifies a token and returns its session
func (m *Manager) Authenticate(token string) (Session, error) {
	if token == "" {
		return Anonymous(), ErrInvalidToken
	}

	claims, err := m.parse(token)
	if err != nil {
		return Anonymous(), err
	}

	m.mu.Lock()
	_, revoked := m.revoked[claims.ID]
	m.mu.Unlock()
	if revoked {
		return Anonymous(), ErrInvalidToken
	}

	return Session{
		Authenticated: true,
		Subject:       claims.Subject,
		TokenID:       claims.ID,
		ExpiresAt:     claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes a token until it would have expired anyway
func (m *Manager) Logout(token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pruneLocked()
	m.revoked[claims.ID] = claims.ExpiresAt.Time

	slog.Info("Admin logged out", "token_id", claims.ID)
	return nil
}

func (m *Manager) parse(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired(), jwt.WithSubject(adminSubject))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) pruneLocked() {
	now := m.now()
	for id, expiresAt := range m.revoked {
		if now.After(expiresAt) {
			delete(m.revoked, id)
		}
	}
}

package jwt

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevokedToken = errors.New("token has been revoked")
	ErrWeakSecret   = errors.New("jwt secret must be at least 32 bytes")
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims represents JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string   `json:"user_id"`
	Email    string   `json:"email,omitempty"`
	Username string   `json:"username,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Type     string   `json:"type"`

	// IssuedAtNano is the issue stamp in Unix nanoseconds. The registered
	// iat claim only has second precision.
	IssuedAtNano int64 `json:"iat_ns,omitempty"`
}

// TokenPair is the result of issuing or refreshing tokens.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  int64
	RefreshExpiresAt int64
}

// Manager signs and verifies HS512 tokens with a shared secret and keeps a
// per-user revocation watermark: tokens stamped at or before it are rejected.
// Issue and revocation stamps share one strictly increasing clock, so a token
// issued after a revocation always outlives it.
type Manager struct {
	secret          []byte
	accessDuration  time.Duration
	refreshDuration time.Duration
	issuer          string
	now             func() time.Time

	stampMu   sync.Mutex
	lastStamp time.Time

	mu           sync.RWMutex
	revokedAfter map[string]time.Time // userID -> tokens stamped at or before this are dead
}

// NewManager creates a new JWT manager.
func NewManager(secret string, accessDuration, refreshDuration time.Duration, issuer string) (*Manager, error) {
	if len(secret) < 32 {
		return nil, ErrWeakSecret
	}
	return &Manager{
		secret:          []byte(secret),
		accessDuration:  accessDuration,
		refreshDuration: refreshDuration,
		issuer:          issuer,
		now:             time.Now,
		revokedAfter:    make(map[string]time.Time),
	}, nil
}

// GenerateTokenPair creates access and refresh tokens.
func (m *Manager) GenerateTokenPair(userID, email, username string, roles []string) (*TokenPair, error) {
	now := m.stamp()

	access := &Claims{
		RegisteredClaims: m.registered(userID, now, m.accessDuration),
		UserID:           userID,
		Email:            email,
		Username:         username,
		Roles:            roles,
		Type:             TypeAccess,
		IssuedAtNano:     now.UnixNano(),
	}
	accessToken, err := m.sign(access)
	if err != nil {
		return nil, err
	}

	refresh := &Claims{
		RegisteredClaims: m.registered(userID, now, m.refreshDuration),
		UserID:           userID,
		Email:            email,
		Username:         username,
		Roles:            roles,
		Type:             TypeRefresh,
		IssuedAtNano:     now.UnixNano(),
	}
	refreshToken, err := m.sign(refresh)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  access.ExpiresAt.Unix(),
		RefreshExpiresAt: refresh.ExpiresAt.Unix(),
	}, nil
}

// ValidateToken parses and verifies a token of any type.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithIssuer(m.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	if m.revoked(claims) {
		return nil, ErrRevokedToken
	}

	return claims, nil
}

// ValidateAccessToken is ValidateToken restricted to access tokens.
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RefreshTokens creates a new token pair from a valid refresh token.
func (m *Manager) RefreshTokens(refreshToken string) (*TokenPair, error) {
	claims, err := m.ValidateToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != TypeRefresh {
		return nil, ErrInvalidToken
	}
	return m.GenerateTokenPair(claims.UserID, claims.Email, claims.Username, claims.Roles)
}

// RevokeUserTokens invalidates every token issued to the user so far.
func (m *Manager) RevokeUserTokens(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revokedAfter[userID] = m.stamp()
}

// CleanupExpiredRevocations drops watermarks older than the refresh lifetime;
// no token issued before them can still be unexpired.
func (m *Manager) CleanupExpiredRevocations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-m.refreshDuration)
	for userID, at := range m.revokedAfter {
		if at.Before(cutoff) {
			delete(m.revokedAfter, userID)
		}
	}
}

func (m *Manager) revoked(c *Claims) bool {
	m.mu.RLock()
	at, ok := m.revokedAfter[c.UserID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	if c.IssuedAtNano != 0 {
		return c.IssuedAtNano <= at.UnixNano()
	}
	if c.IssuedAt == nil {
		return true
	}
	// Without a nanosecond stamp the watermark second itself is dead.
	return !c.IssuedAt.Time.After(at.Truncate(time.Second))
}

// stamp returns the current time, nudged forward so that no two calls
// return the same instant.
func (m *Manager) stamp() time.Time {
	m.stampMu.Lock()
	defer m.stampMu.Unlock()
	now := m.now().Round(0)
	if !now.After(m.lastStamp) {
		now = m.lastStamp.Add(time.Nanosecond)
	}
	m.lastStamp = now
	return now
}

func (m *Manager) registered(userID string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (m *Manager) sign(claims *Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(m.secret)
}

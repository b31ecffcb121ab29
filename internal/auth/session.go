// Package auth issues and checks the admin session cookie.
package auth

import (
	"blogsmith/internal/config"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName carries the signed admin session.
	CookieName = "admin_token"
	// RoleAdmin is the only role a session can hold.
	RoleAdmin = "admin"
	// DefaultTTL is how long a session stays valid.
	DefaultTTL = 24 * time.Hour

	issuer = "blogsmith"
)

var (
	// ErrInvalidPassword means the supplied admin password did not match.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrInvalidToken means the session token is missing, expired or forged.
	ErrInvalidToken = errors.New("invalid session token")
)

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager checks the shared admin password and signs session tokens.
type Manager struct {
	password []byte
	secret   []byte
	ttl      time.Duration
	secure   bool
	now      func() time.Time
}

// NewManager creates a session manager. secure marks cookies HTTPS-only.
func NewManager(cfg config.Admin, secure bool) *Manager {
	return &Manager{
		password: []byte(cfg.Password),
		secret:   []byte(cfg.JWTSecret),
		ttl:      config.Duration(cfg.SessionTTL, DefaultTTL),
		secure:   secure,
		now:      time.Now,
	}
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// CheckPassword compares in constant time. An unset admin password never matches.
func (m *Manager) CheckPassword(password string) error {
	if len(m.password) == 0 {
		return ErrInvalidPassword
	}
	want := sha256.Sum256(m.password)
	got := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(want[:], got[:]) != 1 {
		return ErrInvalidPassword
	}
	return nil
}

// Issue signs a new admin session token.
func (m *Manager) Issue() (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("session signing secret is not configured")
	}
	now := m.now()
	claims := sessionClaims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   RoleAdmin,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify checks signature, expiry, issuer and role.
func (m *Manager) Verify(tokenString string) error {
	if tokenString == "" || len(m.secret) == 0 {
		return ErrInvalidToken
	}
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Role != RoleAdmin {
		return ErrInvalidToken
	}
	return nil
}

// Authenticated reports whether the request carries a valid session cookie.
func (m *Manager) Authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	return m.Verify(cookie.Value) == nil
}

// SetCookie writes the session cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

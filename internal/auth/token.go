package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"giftnest/internal/gift"
)

// tokenTTL is how long a session token stays valid.
const tokenTTL = 7 * 24 * time.Hour

// Claims is the session token payload. The derived key rides along so
// later requests can unlock the holder's identity private key without the
// password. The token is therefore as sensitive as the password itself.
type Claims struct {
	Email      string `json:"email"`
	DerivedKey string `json:"derived_key"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HMAC-signed session tokens.
type TokenManager struct {
	secret []byte
	clock  gift.Clock
}

func NewTokenManager(secret []byte, clock gift.Clock) *TokenManager {
	return &TokenManager{secret: secret, clock: clock}
}

// Issue creates a signed token for a fresh session.
func (m *TokenManager) Issue(session *gift.Session) (string, error) {
	now := m.clock.Now()
	claims := Claims{
		Email:      session.User.Email,
		DerivedKey: session.DerivedKey,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.User.UUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Parse verifies a token and returns its claims.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.clock.Now), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("invalid session token: %w", err)
	}
	return &claims, nil
}

// LoadOrCreateSecret reads the signing secret from path, generating a
// fresh one on first use.
func LoadOrCreateSecret(path string) ([]byte, error) {
	secret, err := os.ReadFile(path)
	if err == nil {
		if len(secret) < 32 {
			return nil, fmt.Errorf("token secret at %s is too short", path)
		}
		return secret, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading token secret: %w", err)
	}

	secret = make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating token secret: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating secret directory: %w", err)
	}
	if err := os.WriteFile(path, secret, 0600); err != nil {
		return nil, fmt.Errorf("writing token secret: %w", err)
	}
	return secret, nil
}

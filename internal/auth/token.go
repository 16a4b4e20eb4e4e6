package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const adminSubject = "admin"

// AdminTokenManager issues and validates short-lived admin session tokens.
// Sessions are stateless; the admin surface keeps no state beyond the shared
// password check that mints them.
type AdminTokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewAdminTokenManager builds a new manager.
func NewAdminTokenManager(secret string, ttl time.Duration) *AdminTokenManager {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &AdminTokenManager{secret: []byte(secret), ttl: ttl}
}

// GenerateToken signs a session token for the admin subject.
func (tm *AdminTokenManager) GenerateToken() (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   adminSubject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates a session token.
func (tm *AdminTokenManager) ParseToken(tokenStr string) error {
	parsed, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return err
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid || claims.Subject != adminSubject {
		return errors.New("invalid token claims")
	}
	return nil
}

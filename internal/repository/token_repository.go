package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/exam-access-service/internal/domain"
)

// ErrTokenNotFound signals an absent record. Callers treat absence as an
// invalid token, never as a transport failure.
var ErrTokenNotFound = errors.New("token not found")

// TokenStore persists token records keyed by the token string. Implementations
// guarantee per-key atomicity and eventual deletion at or after expiry, but
// never before it. Physical eviction may lag; the validator's own expiry check
// remains the source of truth.
type TokenStore interface {
	// Save durably writes the record. The caller must not hand the token out
	// unless Save returned nil.
	Save(ctx context.Context, rec *domain.TokenRecord) error
	// Get returns the record for an exact key match, ErrTokenNotFound when
	// absent or already evicted.
	Get(ctx context.Context, token string) (*domain.TokenRecord, error)
}

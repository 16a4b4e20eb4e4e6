package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/exam-access-service/internal/domain"
	"github.com/spec-kit/exam-access-service/internal/events"
	"github.com/spec-kit/exam-access-service/internal/repository"
)

// TokenService issues and validates the short-lived opaque tokens gating the
// access-code exchange.
type TokenService struct {
	store      repository.TokenStore
	ttl        time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewTokenService builds the service.
func NewTokenService(store repository.TokenStore, ttl time.Duration, dispatcher events.Dispatcher, logger *zap.Logger) *TokenService {
	return &TokenService{
		store:      store,
		ttl:        ttl,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Issue mints a fresh token and durably records it before returning. A store
// write failure fails the whole operation; no token is ever handed out
// without a corresponding stored record.
func (s *TokenService) Issue(ctx context.Context) (*domain.TokenRecord, error) {
	now := s.now()
	rec := &domain.TokenRecord{
		Token:     newToken(),
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	}

	if err := s.store.Save(ctx, rec); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTokenIssued, events.TokenIssuedPayload{
		TokenPrefix: tokenPrefix(rec.Token),
		ExpiresAt:   rec.ExpiresAt,
	})
	return rec, nil
}

// Validate reports whether the token is live. The contract is total: every
// call returns a boolean, never an error. Validation is read-only and may be
// repeated any number of times within the window; tokens are deliberately not
// single-use.
func (s *TokenService) Validate(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	rec, err := s.store.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, repository.ErrTokenNotFound) {
			s.logger.Warn("token lookup failed", zap.Error(err))
		}
		return false
	}

	// The store evicts expired records eventually, not promptly. This check
	// is the source of truth.
	return !rec.Expired(s.now())
}

func (s *TokenService) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: s.now(),
		Payload:   payload,
	})
}

// newToken renders a UUIDv4 without separators: 32 hex characters carrying
// 122 bits of entropy, making brute-force guessing within the validity
// window infeasible.
func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func tokenPrefix(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:8]
}

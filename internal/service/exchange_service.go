package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/exam-access-service/internal/events"
	"github.com/spec-kit/exam-access-service/internal/observability"
	"github.com/spec-kit/exam-access-service/internal/secrets"
	apperrors "github.com/spec-kit/exam-access-service/pkg/util/errorutil"
)

// MockAccessCode is returned when no provider credential is configured. It is
// deliberately unmistakable for a real code and always paired with the dev
// flag so callers can detect mock mode.
const MockAccessCode = "ABC123MOCK"

var timeNow = time.Now

// TokenValidator reports whether a token is live.
type TokenValidator interface {
	Validate(ctx context.Context, token string) bool
}

// AccessCodeProvider allocates a one-time access code upstream.
type AccessCodeProvider interface {
	CreateAccessCode(ctx context.Context, credential, testID string) (string, error)
}

// ExchangeResult is the outcome of a successful exchange.
type ExchangeResult struct {
	AccessCode string
	DevMode    bool
}

// ExchangeService swaps a live token for a one-time access code. Per request
// it performs at most one provider call and never retries; retry is a caller
// policy decision.
type ExchangeService struct {
	tokens           TokenValidator
	secrets          secrets.Provider
	provider         AccessCodeProvider
	credentialSecret string
	dispatcher       events.Dispatcher
	metrics          *observability.Metrics
	logger           *zap.Logger
}

// ExchangeDependencies bundles collaborator requirements.
type ExchangeDependencies struct {
	Tokens           TokenValidator
	Secrets          secrets.Provider
	Provider         AccessCodeProvider
	CredentialSecret string
	Dispatcher       events.Dispatcher
	Metrics          *observability.Metrics
	Logger           *zap.Logger
}

// NewExchangeService builds the service.
func NewExchangeService(deps ExchangeDependencies) *ExchangeService {
	return &ExchangeService{
		tokens:           deps.Tokens,
		secrets:          deps.Secrets,
		provider:         deps.Provider,
		credentialSecret: deps.CredentialSecret,
		dispatcher:       deps.Dispatcher,
		metrics:          deps.Metrics,
		logger:           deps.Logger,
	}
}

// Exchange validates input and token, then either calls the provider once or
// falls back to dev mode when no credential is configured. The token check is
// mandatory and happens before any external call; an unauthenticated request
// never reaches the provider.
func (s *ExchangeService) Exchange(ctx context.Context, token, testID string) (*ExchangeResult, error) {
	if token == "" || testID == "" {
		return nil, apperrors.NewBadRequest("token and testId are required", nil)
	}

	if !s.tokens.Validate(ctx, token) {
		s.metrics.RecordExchange("rejected")
		s.publishFailure(ctx, testID, "invalid or expired token")
		return nil, apperrors.NewUnauthorized("invalid or expired token")
	}

	credential, found, err := s.secrets.Get(ctx, s.credentialSecret)
	if err != nil {
		s.metrics.RecordExchange("failed")
		return nil, apperrors.NewUpstreamUnavailable("secret store unavailable", nil, err)
	}

	if !found {
		// Valid steady state before production credentials exist.
		s.metrics.RecordExchange("dev")
		s.publishSuccess(ctx, testID, true)
		return &ExchangeResult{AccessCode: MockAccessCode, DevMode: true}, nil
	}

	code, err := s.provider.CreateAccessCode(ctx, credential, testID)
	if err != nil {
		s.metrics.RecordExchange("failed")
		s.publishFailure(ctx, testID, "provider call failed")
		return nil, err
	}

	s.metrics.RecordExchange("provider")
	s.publishSuccess(ctx, testID, false)
	return &ExchangeResult{AccessCode: code}, nil
}

func (s *ExchangeService) publishSuccess(ctx context.Context, testID string, devMode bool) {
	s.publish(ctx, events.EventAccessCodeIssued, events.AccessCodeIssuedPayload{
		TestID:  testID,
		DevMode: devMode,
	})
}

func (s *ExchangeService) publishFailure(ctx context.Context, testID, reason string) {
	s.publish(ctx, events.EventExchangeFailed, events.ExchangeFailedPayload{
		TestID: testID,
		Reason: reason,
	})
}

func (s *ExchangeService) publish(ctx context.Context, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: timeNow(),
		Payload:   payload,
	})
}

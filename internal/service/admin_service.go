package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/exam-access-service/internal/auth"
	"github.com/spec-kit/exam-access-service/internal/secrets"
	apperrors "github.com/spec-kit/exam-access-service/pkg/util/errorutil"
)

// TestCatalogProvider fetches the provider's test list.
type TestCatalogProvider interface {
	ListTests(ctx context.Context, credential string) ([]byte, error)
}

// AdminService backs the password-gated administrative read surface. It holds
// no state beyond the shared password check.
type AdminService struct {
	gate             *auth.AdminGate
	sessions         *auth.AdminTokenManager
	secrets          secrets.Provider
	provider         TestCatalogProvider
	credentialSecret string
	logger           *zap.Logger
}

// AdminDependencies bundles collaborator requirements.
type AdminDependencies struct {
	Gate             *auth.AdminGate
	Sessions         *auth.AdminTokenManager
	Secrets          secrets.Provider
	Provider         TestCatalogProvider
	CredentialSecret string
	Logger           *zap.Logger
}

// NewAdminService builds the service.
func NewAdminService(deps AdminDependencies) *AdminService {
	return &AdminService{
		gate:             deps.Gate,
		sessions:         deps.Sessions,
		secrets:          deps.Secrets,
		provider:         deps.Provider,
		credentialSecret: deps.CredentialSecret,
		logger:           deps.Logger,
	}
}

// Login verifies the shared password and mints a short-lived session token.
func (s *AdminService) Login(ctx context.Context, password string) (string, time.Time, error) {
	if err := s.gate.VerifyPassword(ctx, password); err != nil {
		return "", time.Time{}, err
	}
	return s.sessions.GenerateToken()
}

// ListTests proxies the provider's test list verbatim. Unlike the exchange
// flow there is no dev-mode fallback here: a missing provider credential is
// an explicit configuration error on the admin surface.
func (s *AdminService) ListTests(ctx context.Context) ([]byte, error) {
	credential, found, err := s.secrets.Get(ctx, s.credentialSecret)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailable("secret store unavailable", nil, err)
	}
	if !found {
		return nil, apperrors.NewMisconfigured("provider credential not configured")
	}

	s.logger.Debug("proxying provider test list")
	return s.provider.ListTests(ctx, credential)
}

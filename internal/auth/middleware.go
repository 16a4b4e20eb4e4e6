package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exam-access-service/internal/secrets"
	apperrors "github.com/spec-kit/exam-access-service/pkg/util/errorutil"
)

const passwordHeader = "X-Admin-Password"

// AdminGate protects the administrative surface with the shared password, or
// with a session token previously minted from it.
type AdminGate struct {
	secrets        secrets.Provider
	passwordSecret string
	tokens         *AdminTokenManager
}

// NewAdminGate constructs the gate.
func NewAdminGate(provider secrets.Provider, passwordSecret string, tokens *AdminTokenManager) *AdminGate {
	return &AdminGate{secrets: provider, passwordSecret: passwordSecret, tokens: tokens}
}

// VerifyPassword checks the presented password against the bcrypt hash held
// in the secret store. A missing secret is a configuration error, never a
// silent fallback.
func (g *AdminGate) VerifyPassword(ctx context.Context, password string) error {
	if password == "" {
		return apperrors.NewUnauthorized("admin password required")
	}

	hash, found, err := g.secrets.Get(ctx, g.passwordSecret)
	if err != nil {
		return apperrors.NewUpstreamUnavailable("secret store unavailable", nil, err)
	}
	if !found {
		return apperrors.NewMisconfigured("admin password secret not configured")
	}

	if err := ComparePassword(hash, password); err != nil {
		return apperrors.NewUnauthorized("invalid admin password")
	}
	return nil
}

// Handle enforces admin authentication: either the password header or a
// bearer session token.
func (g *AdminGate) Handle(c *fiber.Ctx) error {
	if password := c.Get(passwordHeader); password != "" {
		if err := g.VerifyPassword(c.Context(), password); err != nil {
			return err
		}
		return c.Next()
	}

	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("admin credentials required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}
	if err := g.tokens.ParseToken(parts[1]); err != nil {
		return apperrors.NewUnauthorized("invalid admin session")
	}
	return c.Next()
}

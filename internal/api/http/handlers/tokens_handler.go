package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exam-access-service/internal/api/dto"
	"github.com/spec-kit/exam-access-service/internal/domain"
	"github.com/spec-kit/exam-access-service/internal/service"
	apperrors "github.com/spec-kit/exam-access-service/pkg/util/errorutil"
)

// TokenIssuer mints and records a fresh token.
type TokenIssuer interface {
	Issue(ctx context.Context) (*domain.TokenRecord, error)
}

// AccessCodeExchanger swaps a token for an access code.
type AccessCodeExchanger interface {
	Exchange(ctx context.Context, token, testID string) (*service.ExchangeResult, error)
}

// TokensHandler exposes the token issue and access-code exchange endpoints.
type TokensHandler struct {
	issuer    TokenIssuer
	exchanger AccessCodeExchanger
}

// NewTokensHandler constructs handler.
func NewTokensHandler(issuer TokenIssuer, exchanger AccessCodeExchanger) *TokensHandler {
	return &TokensHandler{issuer: issuer, exchanger: exchanger}
}

// Issue handles POST /tokens. The request carries no body; authorization is
// the origin check performed by the route middleware.
func (h *TokensHandler) Issue(c *fiber.Ctx) error {
	rec, err := h.issuer.Issue(c.UserContext())
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(dto.TokenResponse{Token: rec.Token})
}

// Exchange handles POST /access-codes.
func (h *TokensHandler) Exchange(c *fiber.Ctx) error {
	var req dto.ExchangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}

	result, err := h.exchanger.Exchange(c.UserContext(), req.Token, req.TestID)
	if err != nil {
		return err
	}

	return c.JSON(dto.ExchangeResponse{
		AccessCode: result.AccessCode,
		Dev:        result.DevMode,
	})
}

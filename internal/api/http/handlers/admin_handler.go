package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/exam-access-service/internal/api/dto"
	apperrors "github.com/spec-kit/exam-access-service/pkg/util/errorutil"
)

// AdminBackend is the slice of the admin service the handler needs.
type AdminBackend interface {
	Login(ctx context.Context, password string) (string, time.Time, error)
	ListTests(ctx context.Context) ([]byte, error)
}

// AdminHandler exposes the administrative surface.
type AdminHandler struct {
	admin AdminBackend
}

// NewAdminHandler constructs handler.
func NewAdminHandler(admin AdminBackend) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// Login handles POST /admin/login.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewBadRequest("invalid payload", nil)
	}
	if req.Password == "" {
		return apperrors.NewBadRequest("password required", nil)
	}

	token, expiresAt, err := h.admin.Login(c.UserContext(), req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.AdminLoginResponse{Token: token, ExpiresAt: expiresAt})
}

// ListTests handles GET /admin/tests, returning the provider's JSON verbatim.
func (h *AdminHandler) ListTests(c *fiber.Ctx) error {
	payload, err := h.admin.ListTests(c.UserContext())
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}

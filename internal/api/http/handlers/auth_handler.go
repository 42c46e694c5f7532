package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recipe-archive/internal/api/dto"
	"github.com/spec-kit/recipe-archive/internal/service"
	apperrors "github.com/spec-kit/recipe-archive/pkg/util/errorutil"
)

// AuthHandler exposes the login endpoint.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	// Usernames are stored trimmed at registration.
	req.Username = strings.TrimSpace(req.Username)

	details := map[string]any{}
	if req.Username == "" {
		details["username"] = "is required"
	}
	if req.Password == "" {
		details["password"] = "is required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("username and password required", details)
	}

	if err := h.auth.AllowAttempt(c.UserContext(), c.IP(), req.Username); err != nil {
		return err
	}
	result, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusOK).JSON(dto.LoginResponse{
		Token:     result.Token,
		Username:  result.Username,
		ID:        result.UserID,
		ExpiresAt: result.ExpiresAt,
	})
}

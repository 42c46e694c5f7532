package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recipe-archive/internal/auth"
	"github.com/spec-kit/recipe-archive/internal/service"
	apperrors "github.com/spec-kit/recipe-archive/pkg/util/errorutil"
)

// parseID reads a positive integer path parameter.
func parseID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid "+name, map[string]any{name: "must be a positive integer"})
	}
	return id, nil
}

// actorFrom returns the authenticated caller. Routes using it are protected by
// the policy, so an anonymous request here is rejected the same way.
func actorFrom(c *fiber.Ctx) (service.Actor, error) {
	user, ok := auth.FromContext(c).User()
	if !ok {
		return service.Actor{}, apperrors.NewUnauthorized(http.StatusText(http.StatusUnauthorized))
	}
	return service.Actor{ID: user.ID, Username: user.Username}, nil
}

func invalidPayload() error {
	return fiber.NewError(http.StatusBadRequest, "invalid payload")
}

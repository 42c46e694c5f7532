package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recipe-archive/internal/api/dto"
	"github.com/spec-kit/recipe-archive/internal/service"
)

// RecipesHandler exposes recipe endpoints.
type RecipesHandler struct {
	recipes *service.RecipeService
}

// NewRecipesHandler constructs handler.
func NewRecipesHandler(recipeService *service.RecipeService) *RecipesHandler {
	return &RecipesHandler{recipes: recipeService}
}

// List handles GET /recipes.
func (h *RecipesHandler) List(c *fiber.Ctx) error {
	recipes, err := h.recipes.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewRecipeListResponse(recipes))
}

// ListByUser handles GET /recipes/user/:userId.
func (h *RecipesHandler) ListByUser(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}
	recipes, err := h.recipes.ListByUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewRecipeListResponse(recipes))
}

// Get handles GET /recipes/:id.
func (h *RecipesHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	recipe, err := h.recipes.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewRecipeResponse(recipe))
}

// Create handles POST /recipes.
func (h *RecipesHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.RecipeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	recipe, err := h.recipes.Create(c.UserContext(), actor, req.Input())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewRecipeResponse(recipe))
}

// Update handles PUT /recipes/:id.
func (h *RecipesHandler) Update(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req dto.RecipeRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}
	recipe, err := h.recipes.Update(c.UserContext(), actor, id, req.Input())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewRecipeResponse(recipe))
}

// Delete handles DELETE /recipes/:id.
func (h *RecipesHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.recipes.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

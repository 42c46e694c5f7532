package dto

import (
	"time"

	"github.com/spec-kit/recipe-archive/internal/domain"
	"github.com/spec-kit/recipe-archive/internal/service"
)

// RecipeRequest is used for both create and partial update. The owner is
// always the authenticated caller, so no user id is accepted.
type RecipeRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Ingredients  *string `json:"ingredients"`
	Instructions *string `json:"instructions"`
	Allergies    *string `json:"allergies"`
	PrepTime     *int    `json:"prepTime"`
	CookingTime  *int    `json:"cookingTime"`
	Servings     *int    `json:"servings"`
}

// Input converts the request into service input.
func (r RecipeRequest) Input() service.RecipeInput {
	return service.RecipeInput{
		Title:        r.Title,
		Description:  r.Description,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
		Allergies:    r.Allergies,
		PrepTime:     r.PrepTime,
		CookingTime:  r.CookingTime,
		Servings:     r.Servings,
	}
}

// RecipeResponse is the public view of a recipe.
type RecipeResponse struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	Ingredients  string    `json:"ingredients"`
	Instructions string    `json:"instructions"`
	Allergies    *string   `json:"allergies"`
	PrepTime     *int      `json:"prepTime"`
	CookingTime  *int      `json:"cookingTime"`
	Servings     *int      `json:"servings"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewRecipeResponse maps a domain recipe.
func NewRecipeResponse(r *domain.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:           r.ID,
		UserID:       r.UserID,
		Title:        r.Title,
		Description:  r.Description,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
		Allergies:    r.Allergies,
		PrepTime:     r.PrepTime,
		CookingTime:  r.CookingTime,
		Servings:     r.Servings,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// NewRecipeListResponse maps a slice of recipes.
func NewRecipeListResponse(recipes []domain.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, NewRecipeResponse(&recipes[i]))
	}
	return out
}

package service

import (
	"context"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/spec-kit/recipe-archive/internal/domain"
	"github.com/spec-kit/recipe-archive/internal/events"
	"github.com/spec-kit/recipe-archive/internal/repository"
	apperrors "github.com/spec-kit/recipe-archive/pkg/util/errorutil"
)

const maxTitleLen = 255

// RecipeService coordinates recipe workflows.
type RecipeService struct {
	recipes   repository.RecipeRepository
	sanitizer *bluemonday.Policy
	events    publisher
}

// RecipeDependencies bundles collaborators for the recipe service.
type RecipeDependencies struct {
	RecipeRepo repository.RecipeRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// RecipeInput describes recipe fields. On update a nil field is left unchanged.
type RecipeInput struct {
	Title        *string
	Description  *string
	Ingredients  *string
	Instructions *string
	Allergies    *string
	PrepTime     *int
	CookingTime  *int
	Servings     *int
}

// NewRecipeService constructs the service.
func NewRecipeService(deps RecipeDependencies) *RecipeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeService{
		recipes:   deps.RecipeRepo,
		sanitizer: bluemonday.StrictPolicy(),
		events:    publisher{dispatcher: deps.Dispatcher, logger: logger},
	}
}

// Create stores a recipe owned by actor.
func (s *RecipeService) Create(ctx context.Context, actor Actor, input RecipeInput) (*domain.Recipe, error) {
	recipe := &domain.Recipe{UserID: actor.ID}
	details := map[string]any{}
	for field, value := range map[string]*string{
		"title":        input.Title,
		"ingredients":  input.Ingredients,
		"instructions": input.Instructions,
	} {
		if value == nil || strings.TrimSpace(*value) == "" {
			details[field] = "is required"
		}
	}
	s.apply(recipe, input, details)
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid recipe", details)
	}

	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, mapRepoError("user", actor.ID, err)
	}
	s.events.publish(ctx, events.NewEvent(events.EventRecipeCreated, actor.Username, recipe.ID,
		events.RecipeChangedPayload{OwnerID: recipe.UserID, Title: recipe.Title}))
	return recipe, nil
}

// Update applies the non-nil fields of input to a recipe the actor owns.
func (s *RecipeService) Update(ctx context.Context, actor Actor, id int64, input RecipeInput) (*domain.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError("recipe", id, err)
	}
	if recipe.UserID != actor.ID {
		return nil, apperrors.NewForbidden("You can only modify your own recipes")
	}

	details := map[string]any{}
	s.apply(recipe, input, details)
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid recipe", details)
	}

	if err := s.recipes.Update(ctx, recipe); err != nil {
		return nil, mapRepoError("recipe", id, err)
	}
	s.events.publish(ctx, events.NewEvent(events.EventRecipeUpdated, actor.Username, recipe.ID,
		events.RecipeChangedPayload{OwnerID: recipe.UserID, Title: recipe.Title}))
	return recipe, nil
}

// Delete removes a recipe the actor owns.
func (s *RecipeService) Delete(ctx context.Context, actor Actor, id int64) error {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return mapRepoError("recipe", id, err)
	}
	if recipe.UserID != actor.ID {
		return apperrors.NewForbidden("You can only delete your own recipes")
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		return mapRepoError("recipe", id, err)
	}
	s.events.publish(ctx, events.NewEvent(events.EventRecipeDeleted, actor.Username, id,
		events.RecipeChangedPayload{OwnerID: recipe.UserID, Title: recipe.Title}))
	return nil
}

// Get returns one recipe.
func (s *RecipeService) Get(ctx context.Context, id int64) (*domain.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError("recipe", id, err)
	}
	return recipe, nil
}

// List returns every recipe ordered by id.
func (s *RecipeService) List(ctx context.Context) ([]domain.Recipe, error) {
	recipes, err := s.recipes.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return recipes, nil
}

// ListByUser returns the recipes owned by userID.
func (s *RecipeService) ListByUser(ctx context.Context, userID int64) ([]domain.Recipe, error) {
	recipes, err := s.recipes.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return recipes, nil
}

// apply copies sanitized input onto recipe, recording invalid fields in details.
func (s *RecipeService) apply(recipe *domain.Recipe, input RecipeInput, details map[string]any) {
	if input.Title != nil {
		recipe.Title = s.clean(*input.Title)
		if recipe.Title == "" {
			details["title"] = "must not be blank"
		} else if utf8.RuneCountInString(recipe.Title) > maxTitleLen {
			details["title"] = "must be at most 255 characters"
		}
	}
	if input.Ingredients != nil {
		recipe.Ingredients = s.clean(*input.Ingredients)
		if recipe.Ingredients == "" {
			details["ingredients"] = "must not be blank"
		}
	}
	if input.Instructions != nil {
		recipe.Instructions = s.clean(*input.Instructions)
		if recipe.Instructions == "" {
			details["instructions"] = "must not be blank"
		}
	}
	if input.Description != nil {
		recipe.Description = s.cleanOptional(*input.Description)
	}
	if input.Allergies != nil {
		recipe.Allergies = s.cleanOptional(*input.Allergies)
	}
	for field, pair := range map[string]struct {
		in  *int
		dst **int
	}{
		"prepTime":    {input.PrepTime, &recipe.PrepTime},
		"cookingTime": {input.CookingTime, &recipe.CookingTime},
		"servings":    {input.Servings, &recipe.Servings},
	} {
		if pair.in == nil {
			continue
		}
		if *pair.in <= 0 {
			details[field] = "must be positive"
			continue
		}
		v := *pair.in
		*pair.dst = &v
	}
}

// clean strips markup. The strict policy entity-encodes the text it keeps;
// responses are JSON, so the text is stored decoded.
func (s *RecipeService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

// cleanOptional maps blank text to nil.
func (s *RecipeService) cleanOptional(value string) *string {
	cleaned := s.clean(value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

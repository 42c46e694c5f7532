package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/recipe-archive/internal/domain"
)

// RecipeRepository encapsulates recipe persistence.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *domain.Recipe) error
	Update(ctx context.Context, recipe *domain.Recipe) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Recipe, error)
	List(ctx context.Context) ([]domain.Recipe, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Recipe, error)
}

type recipeRepository struct {
	pool *pgxpool.Pool
}

// NewRecipeRepository instantiates repository.
func NewRecipeRepository(pool *pgxpool.Pool) RecipeRepository {
	return &recipeRepository{pool: pool}
}

const recipeColumns = `id, user_id, title, description, ingredients, instructions, allergies,
               prep_time, cooking_time, servings, created_at, updated_at`

func (r *recipeRepository) Create(ctx context.Context, recipe *domain.Recipe) error {
	const query = `
        INSERT INTO recipes (user_id, title, description, ingredients, instructions, allergies, prep_time, cooking_time, servings)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		recipe.UserID,
		recipe.Title,
		recipe.Description,
		recipe.Ingredients,
		recipe.Instructions,
		recipe.Allergies,
		recipe.PrepTime,
		recipe.CookingTime,
		recipe.Servings,
	).Scan(&recipe.ID, &recipe.CreatedAt, &recipe.UpdatedAt)
	return translate(err)
}

func (r *recipeRepository) Update(ctx context.Context, recipe *domain.Recipe) error {
	const query = `
        UPDATE recipes SET title=$1, description=$2, ingredients=$3, instructions=$4, allergies=$5,
            prep_time=$6, cooking_time=$7, servings=$8, updated_at=NOW()
        WHERE id=$9
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		recipe.Title,
		recipe.Description,
		recipe.Ingredients,
		recipe.Instructions,
		recipe.Allergies,
		recipe.PrepTime,
		recipe.CookingTime,
		recipe.Servings,
		recipe.ID,
	).Scan(&recipe.UpdatedAt)
	return translate(err)
}

func (r *recipeRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM recipes WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recipeRepository) GetByID(ctx context.Context, id int64) (*domain.Recipe, error) {
	recipe, err := scanRecipe(r.pool.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id=$1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return recipe, nil
}

func (r *recipeRepository) List(ctx context.Context) ([]domain.Recipe, error) {
	return r.list(ctx, `SELECT `+recipeColumns+` FROM recipes ORDER BY id`)
}

func (r *recipeRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Recipe, error) {
	return r.list(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE user_id=$1 ORDER BY id`, userID)
}

func (r *recipeRepository) list(ctx context.Context, query string, args ...any) ([]domain.Recipe, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	recipes := []domain.Recipe{}
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, *recipe)
	}
	return recipes, rows.Err()
}

func scanRecipe(row pgx.Row) (*domain.Recipe, error) {
	var recipe domain.Recipe
	if err := row.Scan(
		&recipe.ID,
		&recipe.UserID,
		&recipe.Title,
		&recipe.Description,
		&recipe.Ingredients,
		&recipe.Instructions,
		&recipe.Allergies,
		&recipe.PrepTime,
		&recipe.CookingTime,
		&recipe.Servings,
		&recipe.CreatedAt,
		&recipe.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &recipe, nil
}

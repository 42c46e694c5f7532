package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/recipe-archive/internal/domain"
)

// MemoryStore keeps users and recipes in process memory. Deleting a user
// removes the user's recipes, mirroring the ON DELETE CASCADE in the schema.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[int64]domain.User
	recipes      map[int64]domain.Recipe
	nextUserID   int64
	nextRecipeID int64
	now          func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[int64]domain.User),
		recipes: make(map[int64]domain.Recipe),
		now:     time.Now,
	}
}

// Users returns a UserRepository view over the store.
func (s *MemoryStore) Users() UserRepository {
	return memoryUsers{s}
}

// Recipes returns a RecipeRepository view over the store.
func (s *MemoryStore) Recipes() RecipeRepository {
	return memoryRecipes{s}
}

type memoryUsers struct {
	s *MemoryStore
}

func (m memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, existing := range m.s.users {
		if existing.Username == user.Username {
			return &DuplicateError{Field: "username"}
		}
		if existing.Email == user.Email {
			return &DuplicateError{Field: "email"}
		}
	}
	m.s.nextUserID++
	now := m.s.now()
	user.ID = m.s.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	m.s.users[user.ID] = *user
	return nil
}

func (m memoryUsers) Update(_ context.Context, user *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.UpdatedAt = m.s.now()
	m.s.users[user.ID] = stored
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (m memoryUsers) Delete(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.users, id)
	for recipeID, recipe := range m.s.recipes {
		if recipe.UserID == id {
			delete(m.s.recipes, recipeID)
		}
	}
	return nil
}

func (m memoryUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	user, ok := m.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m memoryUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for _, user := range m.s.users {
		if user.Username == username {
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

func (m memoryUsers) List(_ context.Context) ([]domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	users := make([]domain.User, 0, len(m.s.users))
	for _, user := range m.s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

type memoryRecipes struct {
	s *MemoryStore
}

func (m memoryRecipes) Create(_ context.Context, recipe *domain.Recipe) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.users[recipe.UserID]; !ok {
		return ErrNotFound
	}
	m.s.nextRecipeID++
	now := m.s.now()
	recipe.ID = m.s.nextRecipeID
	recipe.CreatedAt = now
	recipe.UpdatedAt = now
	m.s.recipes[recipe.ID] = cloneRecipe(*recipe)
	return nil
}

func (m memoryRecipes) Update(_ context.Context, recipe *domain.Recipe) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.recipes[recipe.ID]
	if !ok {
		return ErrNotFound
	}
	updated := cloneRecipe(*recipe)
	updated.UserID = stored.UserID
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = m.s.now()
	m.s.recipes[recipe.ID] = updated
	recipe.UpdatedAt = updated.UpdatedAt
	return nil
}

func (m memoryRecipes) Delete(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.recipes[id]; !ok {
		return ErrNotFound
	}
	delete(m.s.recipes, id)
	return nil
}

func (m memoryRecipes) GetByID(_ context.Context, id int64) (*domain.Recipe, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	recipe, ok := m.s.recipes[id]
	if !ok {
		return nil, ErrNotFound
	}
	recipe = cloneRecipe(recipe)
	return &recipe, nil
}

func (m memoryRecipes) List(_ context.Context) ([]domain.Recipe, error) {
	return m.filter(func(domain.Recipe) bool { return true }), nil
}

func (m memoryRecipes) ListByUser(_ context.Context, userID int64) ([]domain.Recipe, error) {
	return m.filter(func(r domain.Recipe) bool { return r.UserID == userID }), nil
}

func (m memoryRecipes) filter(keep func(domain.Recipe) bool) []domain.Recipe {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	recipes := []domain.Recipe{}
	for _, recipe := range m.s.recipes {
		if keep(recipe) {
			recipes = append(recipes, cloneRecipe(recipe))
		}
	}
	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID < recipes[j].ID })
	return recipes
}

func cloneRecipe(r domain.Recipe) domain.Recipe {
	r.Description = clonePtr(r.Description)
	r.Allergies = clonePtr(r.Allergies)
	r.PrepTime = clonePtr(r.PrepTime)
	r.CookingTime = clonePtr(r.CookingTime)
	r.Servings = clonePtr(r.Servings)
	return r
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

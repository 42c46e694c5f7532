package service

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/recipe-archive/internal/auth"
	"github.com/spec-kit/recipe-archive/internal/domain"
	"github.com/spec-kit/recipe-archive/internal/events"
	"github.com/spec-kit/recipe-archive/internal/repository"
	apperrors "github.com/spec-kit/recipe-archive/pkg/util/errorutil"
)

const (
	minUsernameLen   = 3
	maxUsernameLen   = 50
	minPasswordLen   = 8
	maxPasswordBytes = 72 // bcrypt limit
	maxNameLen       = 50
)

// UserService coordinates account management.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
	events     publisher
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	BcryptCost int
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// UserRegisterInput describes a new account.
type UserRegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UserUpdateInput carries the editable profile fields; nil leaves a field unchanged.
type UserUpdateInput struct {
	FirstName *string
	LastName  *string
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:      deps.UserRepo,
		bcryptCost: deps.BcryptCost,
		events:     publisher{dispatcher: deps.Dispatcher, logger: logger},
	}
}

// Register validates input, hashes the password and stores the account.
func (s *UserService) Register(ctx context.Context, input UserRegisterInput) (*domain.User, error) {
	user := &domain.User{
		Username:  strings.TrimSpace(input.Username),
		Email:     strings.TrimSpace(input.Email),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
	}

	details := map[string]any{}
	if n := utf8.RuneCountInString(user.Username); n < minUsernameLen || n > maxUsernameLen {
		details["username"] = "must be between 3 and 50 characters"
	}
	if !validEmail(user.Email) {
		details["email"] = "must be a valid email address"
	}
	if utf8.RuneCountInString(input.Password) < minPasswordLen {
		details["password"] = "must be at least 8 characters"
	} else if len(input.Password) > maxPasswordBytes {
		details["password"] = "must be at most 72 bytes"
	}
	if input.FirstName != "" {
		checkName(details, "firstName", input.FirstName)
	}
	if input.LastName != "" {
		checkName(details, "lastName", input.LastName)
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid user", details)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user.PasswordHash = hash

	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapRepoError("user", 0, err)
	}
	s.events.publish(ctx, events.NewEvent(events.EventUserRegistered, user.Username, user.ID,
		events.UserChangedPayload{Email: user.Email}))
	return user, nil
}

// List returns every account ordered by id.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError("user", id, err)
	}
	return user, nil
}

// Update changes the profile names of the actor's own account.
func (s *UserService) Update(ctx context.Context, actor Actor, id int64, input UserUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError("user", id, err)
	}
	if user.ID != actor.ID {
		return nil, apperrors.NewForbidden("You can only modify your own account")
	}

	details := map[string]any{}
	if input.FirstName != nil {
		checkName(details, "firstName", *input.FirstName)
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		checkName(details, "lastName", *input.LastName)
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid user", details)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, mapRepoError("user", id, err)
	}
	s.events.publish(ctx, events.NewEvent(events.EventUserUpdated, actor.Username, user.ID, nil))
	return user, nil
}

// Delete removes the actor's own account together with its recipes. Tokens
// issued to the account stop authenticating immediately.
func (s *UserService) Delete(ctx context.Context, actor Actor, id int64) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return mapRepoError("user", id, err)
	}
	if user.ID != actor.ID {
		return apperrors.NewForbidden("You can only delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return mapRepoError("user", id, err)
	}
	s.events.publish(ctx, events.NewEvent(events.EventUserDeleted, actor.Username, id, nil))
	return nil
}

func checkName(details map[string]any, field, value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > maxNameLen {
		details[field] = "must be between 1 and 50 characters and not blank"
	}
}

// validEmail accepts a bare RFC 5322 address, without a display name.
func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/recipe-archive/internal/domain"
	"github.com/spec-kit/recipe-archive/internal/repository"
)

// ErrAuthFailure is returned for an unknown username and for a wrong password alike.
var ErrAuthFailure = errors.New("invalid username or password")

// CredentialStore is the lookup the verifier needs from user persistence.
type CredentialStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// CredentialVerifier checks username/password pairs against stored bcrypt hashes.
type CredentialVerifier struct {
	users     CredentialStore
	dummyHash string
}

// NewCredentialVerifier builds a verifier. cost should match the cost used at
// registration so that both failure paths take the same time.
func NewCredentialVerifier(users CredentialStore, cost int) (*CredentialVerifier, error) {
	dummy, err := HashPassword("recipe-archive-timing-equalizer", cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &CredentialVerifier{users: users, dummyHash: dummy}, nil
}

// Verify returns the account when password matches its stored hash.
func (v *CredentialVerifier) Verify(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := v.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		// Burn one comparison so a missing account costs as much as a wrong password.
		_ = ComparePassword(v.dummyHash, password)
		return nil, ErrAuthFailure
	}
	if err != nil {
		return nil, fmt.Errorf("lookup credentials: %w", err)
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrAuthFailure
	}
	return user, nil
}

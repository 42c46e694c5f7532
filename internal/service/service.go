package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/recipe-archive/internal/events"
	"github.com/spec-kit/recipe-archive/internal/repository"
	apperrors "github.com/spec-kit/recipe-archive/pkg/util/errorutil"
)

// Actor is the authenticated account performing a mutation.
type Actor struct {
	ID       int64
	Username string
}

type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func (p publisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// mapRepoError converts repository errors into API errors for resource.
func mapRepoError(resource string, id int64, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	var dup *repository.DuplicateError
	if errors.As(err, &dup) {
		return apperrors.NewConflict(dup.Field+" already taken", map[string]any{"field": dup.Field})
	}
	return apperrors.NewInternalError(err)
}

package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/recipe-archive/internal/events"
	"github.com/spec-kit/recipe-archive/internal/observability"
)

// AuditService writes one structured log line per domain event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to every audit event type.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("subject", event.Subject),
		zap.Time("timestamp", event.Timestamp),
	}
	if event.ResourceID != 0 {
		fields = append(fields, zap.Int64("resource_id", event.ResourceID))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}

	if event.Type == events.EventLoginFailed {
		a.logger.Warn("audit event", fields...)
	} else {
		a.logger.Info("audit event", fields...)
	}
	a.metrics.RecordAuditEvent(string(event.Type))
	return nil
}

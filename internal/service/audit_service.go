package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tripflow/console/internal/events"
	"github.com/tripflow/console/internal/observability"
)

// AuditService records session transitions.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to session events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventSessionRestored, a.handleSessionRestored)
	a.dispatcher.Subscribe(events.EventSessionDiscarded, a.handleSessionDiscarded)
	a.dispatcher.Subscribe(events.EventSignedIn, a.handleSignedIn)
	a.dispatcher.Subscribe(events.EventSignInFailed, a.handleSignInFailed)
	a.dispatcher.Subscribe(events.EventSignedOut, a.handleSignedOut)
}

func (a *AuditService) handleSessionRestored(_ context.Context, event events.Event) error {
	a.record(event).Debug("SessionRestored")
	return nil
}

func (a *AuditService) handleSessionDiscarded(_ context.Context, event events.Event) error {
	logger := a.record(event)
	if payload, ok := event.Payload.(events.SessionDiscardedPayload); ok {
		logger = logger.With(zap.String("reason", payload.Reason))
	}
	logger.Info("SessionDiscarded")
	return nil
}

func (a *AuditService) handleSignedIn(_ context.Context, event events.Event) error {
	a.record(event).Info("SignedIn")
	return nil
}

func (a *AuditService) handleSignInFailed(_ context.Context, event events.Event) error {
	logger := a.record(event)
	if payload, ok := event.Payload.(events.SignInFailedPayload); ok {
		logger = logger.With(zap.String("kind", payload.Kind))
	}
	logger.Info("SignInFailed")
	return nil
}

func (a *AuditService) handleSignedOut(_ context.Context, event events.Event) error {
	a.record(event).Info("SignedOut")
	return nil
}

func (a *AuditService) record(event events.Event) *zap.Logger {
	a.metrics.RecordSessionEvent(string(event.Type))
	return a.logger.With(
		zap.String("event_id", event.ID),
		zap.String("client_id", event.ClientID),
		zap.String("role", string(event.Role)),
	)
}

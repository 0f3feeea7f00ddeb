package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-service/internal/events"
)

// AuditService records auth events in the structured log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleLoginSucceeded)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventAPIKeyIssued, a.handleAPIKeyIssued)
	a.dispatcher.Subscribe(events.EventLogout, a.handleLogout)
	a.dispatcher.Subscribe(events.EventOperatorActivity, a.handleOperatorActivity)
}

func (a *AuditService) handleLoginSucceeded(_ context.Context, event events.Event) error {
	a.logger.Info("LoginSucceeded", actorFields(event)...)
	return nil
}

func (a *AuditService) handleLoginFailed(_ context.Context, event events.Event) error {
	fields := actorFields(event)
	if p, ok := event.Payload.(events.LoginFailedPayload); ok {
		fields = append(fields, zap.String("identifier", p.Identifier), zap.String("cause", p.Cause))
	}
	a.logger.Warn("LoginFailed", fields...)
	return nil
}

func (a *AuditService) handleAPIKeyIssued(_ context.Context, event events.Event) error {
	fields := actorFields(event)
	if p, ok := event.Payload.(events.APIKeyIssuedPayload); ok {
		fields = append(fields, zap.String("key_id", p.KeyID))
	}
	a.logger.Info("APIKeyIssued", fields...)
	return nil
}

func (a *AuditService) handleLogout(_ context.Context, event events.Event) error {
	a.logger.Info("Logout", actorFields(event)...)
	return nil
}

func (a *AuditService) handleOperatorActivity(_ context.Context, event events.Event) error {
	fields := actorFields(event)
	if p, ok := event.Payload.(events.OperatorActivityPayload); ok {
		fields = append(fields, zap.String("target_operator_id", p.OperatorID), zap.Bool("active", p.Active))
	}
	a.logger.Info("OperatorActivityChanged", fields...)
	return nil
}

func actorFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("operator_id", event.Actor.OperatorID),
		zap.String("customer_id", event.Actor.CustomerID),
		zap.String("role", string(event.Actor.Role)),
		zap.Time("timestamp", event.Timestamp),
	}
}

package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/exam-access-service/internal/events"
)

// AuditService logs token lifecycle events for operational visibility.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to lifecycle events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTokenIssued, a.handleTokenIssued)
	a.dispatcher.Subscribe(events.EventAccessCodeIssued, a.handleAccessCodeIssued)
	a.dispatcher.Subscribe(events.EventExchangeFailed, a.handleExchangeFailed)
}

func (a *AuditService) handleTokenIssued(_ context.Context, event events.Event) error {
	a.logger.Info("TokenIssued", zap.String("event_id", event.ID), zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleAccessCodeIssued(_ context.Context, event events.Event) error {
	a.logger.Info("AccessCodeIssued", zap.String("event_id", event.ID), zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleExchangeFailed(_ context.Context, event events.Event) error {
	a.logger.Warn("ExchangeFailed", zap.String("event_id", event.ID), zap.Any("payload", event.Payload))
	return nil
}

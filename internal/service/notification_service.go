package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/techdesk/internal/config"
	"github.com/spec-kit/techdesk/internal/events"
)

// Template keys handed to the email collaborator.
const (
	TemplateTicketCreated   = "ticket_created"
	TemplateStatusChanged   = "ticket_status_changed"
	TemplateTicketAssigned  = "ticket_assigned"
	TemplateCommentAdded    = "ticket_comment_added"
	TemplateSLABreached     = "sla_breached"
	TemplateTicketEscalated = "ticket_escalated"
)

// NotificationService reacts to domain events and hands notifications to the
// delivery collaborators. Formatting and transport stay outside the core;
// this service only picks the template key and recipients.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.templateHandler(TemplateTicketCreated))
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.templateHandler(TemplateStatusChanged))
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.templateHandler(TemplateTicketAssigned))
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleCommentAdded)
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.templateHandler(TemplateTicketEscalated))
	n.dispatcher.Subscribe(events.EventSLABreached, n.templateHandler(TemplateSLABreached))
}

func (n *NotificationService) templateHandler(template string) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		n.sendEmailStub(ctx, template, event)
		n.sendWebhookStub(ctx, event)
		return nil
	}
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	// Internal notes never notify the requester.
	if payload, ok := event.Payload.(events.TicketCommentAddedPayload); ok && payload.IsInternal {
		return nil
	}
	n.sendEmailStub(ctx, TemplateCommentAdded, event)
	return nil
}

func (n *NotificationService) sendEmailStub(ctx context.Context, template string, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("template", template),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// NotificationService consumes lifecycle events and notifies the involved
// principals: the ticket creator plus, depending on the event, the old and
// new assignees. Delivery failures are logged and never retried; the queue
// semantics are at-most-once.
type NotificationService struct {
	users   repository.UserRepository
	logger  *zap.Logger
	cfg     config.NotificationConfig
	metrics *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(users repository.UserRepository, logger *zap.Logger, cfg config.NotificationConfig, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{
		users:   users,
		logger:  logger,
		cfg:     cfg,
		metrics: metrics,
	}
}

// RegisterHandlers subscribes to every lifecycle event type.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketStateChanged, n.handleTicketStateChanged)
	dispatcher.Subscribe(events.EventTicketClosed, n.handleTicketClosed)
	dispatcher.Subscribe(events.EventTicketReassigned, n.handleTicketReassigned)
	dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	n.record(event)
	n.notify(ctx, event, recipientIDs(payload.CreatorID, payload.AssigneeID))
	return nil
}

func (n *NotificationService) handleTicketStateChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStateChangedPayload)
	if !ok {
		return nil
	}
	n.record(event)
	n.notify(ctx, event, recipientIDs(payload.CreatorID, payload.AssigneeID))
	return nil
}

func (n *NotificationService) handleTicketClosed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClosedPayload)
	if !ok {
		return nil
	}
	n.record(event)
	n.notify(ctx, event, recipientIDs(payload.CreatorID, payload.AssigneeID))
	return nil
}

func (n *NotificationService) handleTicketReassigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketReassignedPayload)
	if !ok {
		return nil
	}
	n.record(event)
	ids := recipientIDs(payload.CreatorID, payload.OldAssigneeID)
	ids = appendUnique(ids, payload.NewAssigneeID)
	n.notify(ctx, event, ids)
	return nil
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return nil
	}
	n.record(event)
	ids := recipientIDs(payload.CreatorID, payload.AssigneeID)
	n.notify(ctx, event, ids)
	return nil
}

func (n *NotificationService) record(event events.Event) {
	n.metrics.RecordEvent(string(event.Type))
}

func (n *NotificationService) notify(ctx context.Context, event events.Event, recipientIDs []string) {
	emails := n.resolveEmails(ctx, recipientIDs)
	n.logger.Info("notification",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.Strings("recipients", emails))
	n.sendEmailStub(event, emails)
	n.sendWebhookStub(event)
}

// resolveEmails maps principal IDs to email addresses. A recipient that no
// longer exists is skipped silently; events may outlive principals.
func (n *NotificationService) resolveEmails(ctx context.Context, ids []string) []string {
	emails := make([]string, 0, len(ids))
	for _, id := range ids {
		user, err := n.users.GetByID(ctx, id)
		if err != nil {
			continue
		}
		emails = append(emails, user.Email)
	}
	return emails
}

func (n *NotificationService) sendEmailStub(event events.Event, recipients []string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || len(recipients) == 0 {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.Strings("to", recipients),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookStub(event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func recipientIDs(creatorID string, assigneeID *string) []string {
	ids := []string{creatorID}
	if assigneeID != nil {
		ids = appendUnique(ids, *assigneeID)
	}
	return ids
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

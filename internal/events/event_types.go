package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported lifecycle event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketStateChanged EventType = "ticket_state_changed"
	EventTicketClosed       EventType = "ticket_closed"
	EventTicketReassigned   EventType = "ticket_reassigned"
	EventCommentAdded       EventType = "comment_added"
)

// Event represents a lifecycle occurrence emitted by the ticket engine.
// Events are ephemeral: they exist only on the outbound queue and are
// consumed exactly once by the notification worker.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CreatorID    string                `json:"creator_id"`
	AssigneeID   *string               `json:"assignee_id,omitempty"`
	DepartmentID string                `json:"department_id"`
	CategoryID   string                `json:"category_id"`
	Priority     domain.TicketPriority `json:"priority"`
	Title        string                `json:"title"`
}

// TicketStateChangedPayload payload.
type TicketStateChangedPayload struct {
	CreatorID  string             `json:"creator_id"`
	AssigneeID *string            `json:"assignee_id,omitempty"`
	OldState   domain.TicketState `json:"old_state"`
	NewState   domain.TicketState `json:"new_state"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	CreatorID  string    `json:"creator_id"`
	AssigneeID *string   `json:"assignee_id,omitempty"`
	ClosedAt   time.Time `json:"closed_at"`
}

// TicketReassignedPayload payload.
type TicketReassignedPayload struct {
	CreatorID     string  `json:"creator_id"`
	OldAssigneeID *string `json:"old_assignee_id,omitempty"`
	NewAssigneeID string  `json:"new_assignee_id"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CreatorID   string  `json:"creator_id"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	CommentID   string  `json:"comment_id"`
	AuthorID    string  `json:"author_id"`
	BodyPreview string  `json:"body_preview"`
}

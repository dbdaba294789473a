package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CategoryID  string `json:"category_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	State       string `json:"state"`
}

// UpdateTicketRequest payload; nil fields are left untouched.
type UpdateTicketRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CategoryID  *string `json:"category_id"`
	Priority    *string `json:"priority"`
	State       *string `json:"state"`
}

// ReassignTicketRequest payload.
type ReassignTicketRequest struct {
	AssigneeID string `json:"assignee_id"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// TicketResponse is the wire representation of a ticket.
type TicketResponse struct {
	ID           string                `json:"id"`
	CreatorID    string                `json:"creator_id"`
	AssigneeID   *string               `json:"assignee_id"`
	BranchID     string                `json:"branch_id"`
	DepartmentID string                `json:"department_id"`
	CategoryID   string                `json:"category_id"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	State        domain.TicketState    `json:"state"`
	Priority     domain.TicketPriority `json:"priority"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	ClosedAt     *time.Time            `json:"closed_at"`
}

// CommentResponse is the wire representation of a comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	FileName    string    `json:"file_name"`
	ContentHash string    `json:"content_hash"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadAttachmentResponse reports the stored attachment; Duplicate marks a
// soft-success upload whose content already existed on the ticket.
type UploadAttachmentResponse struct {
	Attachment AttachmentResponse `json:"attachment"`
	Duplicate  bool               `json:"duplicate"`
}

// TicketMetaResponse lists the closed state and priority sets.
type TicketMetaResponse struct {
	States     []domain.TicketState    `json:"states"`
	Priorities []domain.TicketPriority `json:"priorities"`
}

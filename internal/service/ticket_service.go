package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketService coordinates the ticket lifecycle: creation with routing,
// role-scoped listing, updates, reassignment, closing, deletion and comments.
// Every mutation is gated by the access policy and emits a lifecycle event.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
	categories  repository.CategoryRepository
	blobs       storage.BlobStore
	router      *policy.Router
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	CategoryRepo   repository.CategoryRepository
	BlobStore      storage.BlobStore
	Router         *policy.Router
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	router := deps.Router
	if router == nil {
		router = policy.NewRouter()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		categories:  deps.CategoryRepo,
		blobs:       deps.BlobStore,
		router:      router,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// TicketCreateInput describes ticket creation payload. State, when supplied,
// may only be OPEN or IN_PROCESS; closed tickets cannot be born closed.
type TicketCreateInput struct {
	CategoryID  string
	Title       string
	Description string
	Priority    domain.TicketPriority
	State       domain.TicketState
}

// TicketUpdateInput carries partial updates; nil fields are left untouched.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	CategoryID  *string
	Priority    *domain.TicketPriority
	State       *domain.TicketState
}

// TicketListFilter describes listing parameters before role scoping.
type TicketListFilter struct {
	States     []domain.TicketState
	Priorities []domain.TicketPriority
	AssigneeID *string
	Limit      int
	Offset     int
}

// CreateTicket creates a ticket on behalf of the creator. The department is
// derived from the category, the branch is snapshotted from the creator's
// active branch, and the initial assignee is chosen by the routing policy.
func (s *TicketService) CreateTicket(ctx context.Context, creator *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if !creator.IsActive() {
		return nil, apperrors.NewForbidden("principal inactive")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewInvalidInput("title is required", nil)
	}
	if strings.TrimSpace(input.CategoryID) == "" {
		return nil, apperrors.NewInvalidInput("category_id is required", nil)
	}

	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}

	state := input.State
	switch state {
	case "":
		state = domain.TicketStateOpen
	case domain.TicketStateOpen, domain.TicketStateInProcess:
	default:
		return nil, apperrors.NewInvalidState("tickets cannot be created in state "+string(state), nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityLow
	}

	agents, err := s.departments.ListAgents(ctx, category.DepartmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ticket := &domain.Ticket{
		CreatorID:    creator.ID,
		AssigneeID:   s.router.SelectAssignee(category, agents),
		BranchID:     creator.BranchID,
		DepartmentID: category.DepartmentID,
		CategoryID:   category.ID,
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		State:        state,
		Priority:     priority,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  creator.ID,
		Payload: events.TicketCreatedPayload{
			CreatorID:    ticket.CreatorID,
			AssigneeID:   ticket.AssigneeID,
			DepartmentID: ticket.DepartmentID,
			CategoryID:   ticket.CategoryID,
			Priority:     ticket.Priority,
			Title:        ticket.Title,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket the actor may view.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	return s.authorizedTicket(ctx, actor, ticketID, policy.OpView)
}

// ListTickets returns tickets scoped to the actor's role: admins see
// everything, agents see their departments, end-users see their own.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	if !actor.IsActive() {
		return nil, apperrors.NewForbidden("principal inactive")
	}

	repoFilter := repository.TicketFilter{
		AssigneeID: filter.AssigneeID,
		States:     filter.States,
		Priorities: filter.Priorities,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}

	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleAgent:
		deptIDs, err := s.users.DepartmentsOf(ctx, actor.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if len(deptIDs) == 0 {
			return []domain.Ticket{}, nil
		}
		repoFilter.DepartmentIDs = deptIDs
	default:
		creatorID := actor.ID
		repoFilter.CreatorID = &creatorID
	}

	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// UpdateTicket applies a partial update. Closing via the generic update path
// is rejected; only the dedicated close operation may set CLOSED.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.authorizedTicket(ctx, actor, ticketID, policy.OpEdit)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewInvalidInput("title cannot be empty", nil)
		}
		ticket.Title = title
	}
	if input.Description != nil {
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.Priority != nil {
		ticket.Priority = *input.Priority
	}
	if input.CategoryID != nil && *input.CategoryID != ticket.CategoryID {
		category, err := s.categories.GetByID(ctx, *input.CategoryID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("category", map[string]any{"category_id": *input.CategoryID})
			}
			return nil, apperrors.MapError(err)
		}
		if category.DepartmentID != ticket.DepartmentID {
			return nil, apperrors.NewInvalidInput("category belongs to another department", map[string]any{
				"category_id":   category.ID,
				"department_id": ticket.DepartmentID,
			})
		}
		ticket.CategoryID = category.ID
	}

	oldState := ticket.State
	if input.State != nil && *input.State != ticket.State {
		if *input.State == domain.TicketStateClosed {
			return nil, apperrors.NewInvalidState("tickets are closed through the close operation", nil)
		}
		ticket.State = *input.State
		// reopening clears the closure timestamp to preserve the
		// CLOSED iff closed_at invariant
		ticket.ClosedAt = nil
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if ticket.State != oldState {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStateChanged,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Payload: events.TicketStateChangedPayload{
				CreatorID:  ticket.CreatorID,
				AssigneeID: ticket.AssigneeID,
				OldState:   oldState,
				NewState:   ticket.State,
			},
		})
	}
	return ticket, nil
}

// ReassignTicket moves the ticket to a new agent. The target must be an
// active agent of the ticket's department unless the actor is an admin.
// The first assignment of an OPEN ticket advances it to IN_PROCESS.
func (s *TicketService) ReassignTicket(ctx context.Context, actor *domain.User, ticketID, newAgentID string) (*domain.Ticket, error) {
	ticket, err := s.authorizedTicket(ctx, actor, ticketID, policy.OpReassign)
	if err != nil {
		return nil, err
	}

	target, err := s.users.GetByID(ctx, newAgentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("assignee", map[string]any{"assignee_id": newAgentID})
		}
		return nil, apperrors.MapError(err)
	}
	targetDepts, err := s.users.DepartmentsOf(ctx, target.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if decision := policy.ValidateReassignTarget(actor, target, targetDepts, ticket); !decision.Allowed {
		return nil, apperrors.NewInvalidInput(decision.Reason, map[string]any{"assignee_id": newAgentID})
	}

	oldAssignee := ticket.AssigneeID
	assigneeID := target.ID
	ticket.AssigneeID = &assigneeID
	if ticket.State == domain.TicketStateOpen {
		ticket.State = domain.TicketStateInProcess
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketReassigned,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketReassignedPayload{
			CreatorID:     ticket.CreatorID,
			OldAssigneeID: oldAssignee,
			NewAssigneeID: assigneeID,
		},
	})
	return ticket, nil
}

// CloseTicket closes a ticket. Only IN_PROCESS tickets may be closed;
// closing from OPEN or CLOSED is rejected and leaves the ticket unchanged.
func (s *TicketService) CloseTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.authorizedTicket(ctx, actor, ticketID, policy.OpClose)
	if err != nil {
		return nil, err
	}

	if ticket.State != domain.TicketStateInProcess {
		return nil, apperrors.NewInvalidState("only in-process tickets can be closed", map[string]any{
			"state": string(ticket.State),
		})
	}

	now := time.Now()
	ticket.State = domain.TicketStateClosed
	ticket.ClosedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketClosed,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketClosedPayload{
			CreatorID:  ticket.CreatorID,
			AssigneeID: ticket.AssigneeID,
			ClosedAt:   now,
		},
	})
	return ticket, nil
}

// DeleteTicket removes a ticket together with its comments and attachments.
// Blob removal is best-effort; a dangling blob never blocks the delete.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID string) error {
	ticket, err := s.authorizedTicket(ctx, actor, ticketID, policy.OpDelete)
	if err != nil {
		return err
	}

	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.comments.DeleteByTicket(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.attachments.DeleteByTicket(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}

	if s.blobs != nil {
		for _, attachment := range attachments {
			if err := s.blobs.Delete(ctx, attachment.StorageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
				s.logger.Warn("orphaned attachment blob",
					zap.String("ticket_id", ticket.ID),
					zap.String("storage_key", attachment.StorageKey),
					zap.Error(err))
			}
		}
	}
	return nil
}

// AddComment appends a comment. Any active principal may comment, regardless
// of role, department or ownership.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, body string) (*domain.Comment, error) {
	ticket, err := s.authorizedTicket(ctx, actor, ticketID, policy.OpComment)
	if err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewInvalidInput("comment body is required", nil)
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Body:     body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.CommentAddedPayload{
			CreatorID:   ticket.CreatorID,
			AssigneeID:  ticket.AssigneeID,
			CommentID:   comment.ID,
			AuthorID:    comment.AuthorID,
			BodyPreview: bodyPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// ListComments returns the ticket's comments in chronological order.
func (s *TicketService) ListComments(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.authorizedTicket(ctx, actor, ticketID, policy.OpView)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// authorizedTicket loads the ticket and runs the access policy for op.
func (s *TicketService) authorizedTicket(ctx context.Context, actor *domain.User, ticketID string, op policy.Operation) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}

	var actorDepts []string
	if actor != nil && actor.Role == domain.RoleAgent {
		actorDepts, err = s.users.DepartmentsOf(ctx, actor.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	if decision := policy.CanPerform(actor, actorDepts, ticket, op); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	return ticket, nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func bodyPreview(body string, max int) string {
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}

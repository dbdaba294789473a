package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/policy"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type ticketFixture struct {
	users       *memUserRepo
	departments *memDepartmentRepo
	categories  *memCategoryRepo
	tickets     *memTicketRepo
	comments    *memCommentRepo
	attachments *memAttachmentRepo
	blobs       *memBlobStore
	dispatcher  *recordingDispatcher
	svc         *TicketService

	admin        *domain.User
	agent1       *domain.User
	agent2       *domain.User
	outsideAgent *domain.User
	user1        *domain.User
	user2        *domain.User
	category     *domain.Category
	otherDeptCat *domain.Category
}

func newTicketFixture(t *testing.T, pick func(n int) int) *ticketFixture {
	t.Helper()
	ctx := context.Background()

	f := &ticketFixture{
		users:       newMemUserRepo(),
		categories:  newMemCategoryRepo(),
		tickets:     newMemTicketRepo(),
		comments:    newMemCommentRepo(),
		attachments: newMemAttachmentRepo(),
		blobs:       newMemBlobStore(),
		dispatcher:  &recordingDispatcher{},
	}
	f.departments = newMemDepartmentRepo(f.users)

	d1 := &domain.Department{ID: "d1", Name: "Support"}
	d2 := &domain.Department{ID: "d2", Name: "Infra"}
	require.NoError(t, f.departments.Create(ctx, d1))
	require.NoError(t, f.departments.Create(ctx, d2))

	newUser := func(id string, role domain.Role, depts ...string) *domain.User {
		user := &domain.User{ID: id, Name: id, Email: id + "@example.com", Role: role, Status: domain.UserStatusActive, BranchID: "b1"}
		require.NoError(t, f.users.Create(ctx, user))
		require.NoError(t, f.users.SetDepartments(ctx, id, depts))
		return user
	}
	f.admin = newUser("admin", domain.RoleAdmin)
	f.agent1 = newUser("a1", domain.RoleAgent, "d1")
	f.agent2 = newUser("a2", domain.RoleAgent, "d1")
	f.outsideAgent = newUser("a3", domain.RoleAgent, "d2")
	f.user1 = newUser("u1", domain.RoleUser)
	f.user2 = newUser("u2", domain.RoleUser)

	f.category = &domain.Category{ID: "c1", Name: "Hardware", DepartmentID: "d1"}
	require.NoError(t, f.categories.Create(ctx, f.category))
	f.otherDeptCat = &domain.Category{ID: "c2", Name: "Network", DepartmentID: "d2"}
	require.NoError(t, f.categories.Create(ctx, f.otherDeptCat))

	router := policy.NewRouter()
	if pick != nil {
		router = policy.NewRouterWithPick(pick)
	}
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo:     f.tickets,
		CommentRepo:    f.comments,
		AttachmentRepo: f.attachments,
		UserRepo:       f.users,
		DepartmentRepo: f.departments,
		CategoryRepo:   f.categories,
		BlobStore:      f.blobs,
		Router:         router,
		Dispatcher:     f.dispatcher,
	})
	return f
}

func (f *ticketFixture) createTicket(t *testing.T, creator *domain.User) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.CreateTicket(context.Background(), creator, TicketCreateInput{
		CategoryID:  "c1",
		Title:       "printer on fire",
		Description: "again",
	})
	require.NoError(t, err)
	return ticket
}

func TestCreateTicketRoutesToDepartmentAgent(t *testing.T) {
	f := newTicketFixture(t, func(n int) int { return 0 })

	ticket := f.createTicket(t, f.user1)

	require.Equal(t, domain.TicketStateOpen, ticket.State)
	require.Equal(t, domain.TicketPriorityLow, ticket.Priority)
	require.Equal(t, "b1", ticket.BranchID)
	require.Equal(t, "d1", ticket.DepartmentID)
	require.NotNil(t, ticket.AssigneeID)
	require.Contains(t, []string{"a1", "a2"}, *ticket.AssigneeID)
	require.Equal(t, []events.EventType{events.EventTicketCreated}, f.dispatcher.typeNames())
}

func TestCreateTicketOwnerOverrideWinsOverRandom(t *testing.T) {
	f := newTicketFixture(t, func(n int) int {
		t.Fatal("random pick must not run when the owner is eligible")
		return 0
	})
	ctx := context.Background()

	owner := "a2"
	f.category.OwnerAgentID = &owner
	require.NoError(t, f.categories.Update(ctx, f.category))

	ticket := f.createTicket(t, f.user1)
	require.NotNil(t, ticket.AssigneeID)
	require.Equal(t, "a2", *ticket.AssigneeID)
}

func TestCreateTicketEmptyPoolLeavesUnassigned(t *testing.T) {
	f := newTicketFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.departments.Create(ctx, &domain.Department{ID: "d3", Name: "Facilities"}))
	require.NoError(t, f.categories.Create(ctx, &domain.Category{ID: "c3", Name: "Keys", DepartmentID: "d3"}))

	ticket, err := f.svc.CreateTicket(ctx, f.user1, TicketCreateInput{
		CategoryID: "c3",
		Title:      "lost badge",
	})
	require.NoError(t, err)
	require.Nil(t, ticket.AssigneeID)
	require.Equal(t, domain.TicketStateOpen, ticket.State)
}

func TestCreateTicketUnknownCategory(t *testing.T) {
	f := newTicketFixture(t, nil)

	_, err := f.svc.CreateTicket(context.Background(), f.user1, TicketCreateInput{
		CategoryID: "missing",
		Title:      "x",
	})
	require.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestCreateTicketCannotBeBornClosed(t *testing.T) {
	f := newTicketFixture(t, nil)

	_, err := f.svc.CreateTicket(context.Background(), f.user1, TicketCreateInput{
		CategoryID: "c1",
		Title:      "x",
		State:      domain.TicketStateClosed,
	})
	require.True(t, apperrors.IsCode(err, "INVALID_STATE"))
}

func TestCloseRequiresInProcess(t *testing.T) {
	f := newTicketFixture(t, nil)
	ctx := context.Background()

	open, err := f.svc.CreateTicket(ctx, f.user1, TicketCreateInput{CategoryID: "c2", Title: "open one"})
	require.NoError(t, err)
	require.Equal(t, domain.TicketStateOpen, open.State)

	_, err = f.svc.CloseTicket(ctx, f.admin, open.ID)
	require.True(t, apperrors.IsCode(err, "INVALID_STATE"))

	unchanged, err := f.tickets.GetByID(ctx, open.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStateOpen, unchanged.State)
	require.Nil(t, unchanged.ClosedAt)
}

func TestCloseSetsClosureTimestamp(t *testing.T) {
	f := newTicketFixture(t, func(n int) int { return 0 })
	ctx := context.Background()

	ticket := f.createTicket(t, f.user1)
	_, err := f.svc.ReassignTicket(ctx, f.admin, ticket.ID, "a1")
	require.NoError(t, err)

	closed, err := f.svc.CloseTicket(ctx, f.agent1, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStateClosed, closed.State)
	require.NotNil(t, closed.ClosedAt)

	// closing twice is illegal
	_, err = f.svc.CloseTicket(ctx, f.agent1, ticket.ID)
	require.True(t, apperrors.IsCode(err, "INVALID_STATE"))

	types := f.dispatcher.typeNames()
	require.Equal(t, events.EventTicketClosed, types[len(types)-1])
}

func TestReassignAdvancesOpenTicket(t *testing.T) {
	f := newTicketFixture(t, func(n int) int { return 0 })
	ctx := context.Background()

	ticket := f.createTicket(t, f.user1)
	require.Equal(t, domain.TicketStateOpen, ticket.State)

	reassigned, err := f.svc.ReassignTicket(ctx, f.admin, ticket.ID, "a2")
	require.NoError(t, err)
	require.Equal(t, domain.TicketStateInProcess, reassigned.State)
	require.Equal(t, "a2", *reassigned.AssigneeID)

	// reassigning an in-process ticket preserves state
	again, err := f.svc.ReassignTicket(ctx, f.admin, reassigned.ID, "a1")
	require.NoError(t, err)
	require.Equal(t, domain.TicketStateInProcess, again.State)

	last := f.dispatcher.last()
	require.Equal(t, events.EventTicketReassigned, last.Type)
	payload, ok := last.Payload.(events.TicketReassignedPayload)
	require.True(t, ok)
	require.Equal(t, "a2", *payload.OldAssigneeID)
	require.Equal(t, "a1", payload.NewAssigneeID)
}

func TestReassignOutsideDepartment(t *testing.T) {
	f := newTicketFixture(t, func(n int) int { return 0 })
	ctx := context.Background()

	ticket := f.createTicket(t, f.user1)

	// department agents cannot route to foreign agents
	_, err := f.svc.ReassignTicket(ctx, f.agent1, ticket.ID, "a3")
	require.True(t, apperrors.IsCode(err, "INVALID_INPUT"))

	// admins may override the department check
	reassigned, err := f.svc.ReassignTicket(ctx, f.admin, ticket.ID, "a3")
	require.NoError(t, err)
	require.Equal(t, "a3", *reassigned.AssigneeID)
	require.Equal(t, domain.TicketStateInProcess, reassigned.State)
}

func TestReassignTargetMustBeAgent(t *testing.T) {
	f := newTicketFixture(t, func(n int) int { return 0 })

	ticket := f.createTicket(t, f.user1)
	_, err := f.svc.ReassignTicket(context.Background(), f.admin, ticket.ID, "u2")
	require.True(t, apperrors.IsCode(err, "INVALID_INPUT"))
}

func TestUpdateCannotCloseDirectly(t *testing.T) {
	f := newTicketFixture(t, func(n int) int { return 0 })

	ticket := f.createTicket(t, f.user1)
	closed := domain.TicketStateClosed
	_, err := f.svc.UpdateTicket(context.Background(), f.admin, ticket.ID, TicketUpdateInput{State: &closed})
	require.True(t, apperrors.IsCode(err, "INVALID_STATE"))
}

func TestUpdateCategoryMustMatchDepartment(t *testing.T) {
	f := newTicketFixture(t, func(n int) int { return 0 })

	ticket := f.createTicket(t, f.user1)
	other := "c2"
	_, err := f.svc.UpdateTicket(context.Background(), f.admin, ticket.ID, TicketUpdateInput{CategoryID: &other})
	require.True(t, apperrors.IsCode(err, "INVALID_INPUT"))
}

func TestUpdateReopenClearsClosureTimestamp(t *testing.T) {
	f := newTicketFixture(t, func(n int) int { return 0 })
	ctx := context.Background()

	ticket := f.createTicket(t, f.user1)
	_, err := f.svc.ReassignTicket(ctx, f.admin, ticket.ID, "a1")
	require.NoError(t, err)
	_, err = f.svc.CloseTicket(ctx, f.admin, ticket.ID)
	require.NoError(t, err)

	reopened := domain.TicketStateInProcess
	updated, err := f.svc.UpdateTicket(ctx, f.admin, ticket.ID, TicketUpdateInput{State: &reopened})
	require.NoError(t, err)
	require.Equal(t, domain.TicketStateInProcess, updated.State)
	require.Nil(t, updated.ClosedAt)
}

func TestAccessScoping(t *testing.T) {
	f := newTicketFixture(t, func(n int) int { return 0 })
	ctx := context.Background()

	ticket := f.createTicket(t, f.user1)

	_, err := f.svc.GetTicket(ctx, f.user2, ticket.ID)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = f.svc.GetTicket(ctx, f.outsideAgent, ticket.ID)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	for _, actor := range []*domain.User{f.user1, f.agent1, f.agent2, f.admin} {
		_, err := f.svc.GetTicket(ctx, actor, ticket.ID)
		require.NoError(t, err, "actor %s", actor.ID)
	}

	// comments are open to every active principal
	_, err = f.svc.AddComment(ctx, f.user2, ticket.ID, "me too")
	require.NoError(t, err)
	_, err = f.svc.AddComment(ctx, f.outsideAgent, ticket.ID, "seen in d2 as well")
	require.NoError(t, err)

	inactive := *f.user2
	inactive.Status = domain.UserStatusInactive
	_, err = f.svc.AddComment(ctx, &inactive, ticket.ID, "nope")
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestListTicketsScoping(t *testing.T) {
	f := newTicketFixture(t, func(n int) int { return 0 })
	ctx := context.Background()

	mine := f.createTicket(t, f.user1)
	theirs := f.createTicket(t, f.user2)
	foreign, err := f.svc.CreateTicket(ctx, f.user2, TicketCreateInput{CategoryID: "c2", Title: "infra issue"})
	require.NoError(t, err)

	own, err := f.svc.ListTickets(ctx, f.user1, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, mine.ID, own[0].ID)

	inDept, err := f.svc.ListTickets(ctx, f.agent1, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, inDept, 2)
	for _, item := range inDept {
		require.Equal(t, "d1", item.DepartmentID)
	}

	all, err := f.svc.ListTickets(ctx, f.admin, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	_ = theirs
	_ = foreign
}

func TestDeleteTicketCascades(t *testing.T) {
	f := newTicketFixture(t, func(n int) int { return 0 })
	ctx := context.Background()

	ticket := f.createTicket(t, f.user1)
	_, err := f.svc.AddComment(ctx, f.agent1, ticket.ID, "looking into it")
	require.NoError(t, err)

	require.NoError(t, f.attachments.Create(ctx, &domain.Attachment{
		TicketID: ticket.ID, StorageKey: "blob-1", FileName: "log.pdf", ContentHash: "h", SizeBytes: 3,
	}))
	require.NoError(t, f.blobs.Put(ctx, "blob-1", []byte("abc")))

	require.NoError(t, f.svc.DeleteTicket(ctx, f.user1, ticket.ID))

	_, err = f.tickets.GetByID(ctx, ticket.ID)
	require.Error(t, err)
	comments, err := f.comments.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Empty(t, comments)
	attachments, err := f.attachments.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Empty(t, attachments)
	_, err = f.blobs.Get(ctx, "blob-1")
	require.Error(t, err)
}

func TestLifecycleScenario(t *testing.T) {
	f := newTicketFixture(t, func(n int) int { return n - 1 })
	ctx := context.Background()

	ticket := f.createTicket(t, f.user1)
	require.Equal(t, domain.TicketStateOpen, ticket.State)
	require.Contains(t, []string{"a1", "a2"}, *ticket.AssigneeID)

	// non-admin actors cannot route outside the department
	_, err := f.svc.ReassignTicket(ctx, f.agent2, ticket.ID, "a3")
	require.True(t, apperrors.IsCode(err, "INVALID_INPUT"))

	// the admin override succeeds and advances the state
	reassigned, err := f.svc.ReassignTicket(ctx, f.admin, ticket.ID, "a3")
	require.NoError(t, err)
	require.Equal(t, "a3", *reassigned.AssigneeID)
	require.Equal(t, domain.TicketStateInProcess, reassigned.State)

	closed, err := f.svc.CloseTicket(ctx, f.agent1, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TicketStateClosed, closed.State)
	require.NotNil(t, closed.ClosedAt)

	require.Equal(t, []events.EventType{
		events.EventTicketCreated,
		events.EventTicketReassigned,
		events.EventTicketClosed,
	}, f.dispatcher.typeNames())
}

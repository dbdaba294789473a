package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func testUser(id string, role domain.Role) *domain.User {
	return &domain.User{ID: id, Role: role, Status: domain.UserStatusActive}
}

func testTicket(creatorID, departmentID string) *domain.Ticket {
	return &domain.Ticket{ID: "t1", CreatorID: creatorID, DepartmentID: departmentID, State: domain.TicketStateOpen}
}

func TestCanPerformDeniesInactivePrincipals(t *testing.T) {
	ticket := testTicket("u1", "d1")

	admin := testUser("admin", domain.RoleAdmin)
	admin.Status = domain.UserStatusInactive

	for _, op := range []Operation{OpView, OpEdit, OpDelete, OpReassign, OpComment, OpClose} {
		decision := CanPerform(admin, nil, ticket, op)
		require.False(t, decision.Allowed, "op %s", op)
	}
}

func TestCanPerformAdminAllowsEverything(t *testing.T) {
	admin := testUser("admin", domain.RoleAdmin)
	ticket := testTicket("u1", "d1")

	for _, op := range []Operation{OpView, OpEdit, OpDelete, OpReassign, OpComment, OpClose} {
		require.True(t, CanPerform(admin, nil, ticket, op).Allowed, "op %s", op)
	}
}

func TestCanPerformCommentOpenToEveryActivePrincipal(t *testing.T) {
	ticket := testTicket("u1", "d1")

	// unrelated user, unrelated agent
	require.True(t, CanPerform(testUser("u2", domain.RoleUser), nil, ticket, OpComment).Allowed)
	require.True(t, CanPerform(testUser("a9", domain.RoleAgent), []string{"d9"}, ticket, OpComment).Allowed)
}

func TestCanPerformAgentScopedToDepartments(t *testing.T) {
	agent := testUser("a1", domain.RoleAgent)
	ticket := testTicket("u1", "d1")

	require.True(t, CanPerform(agent, []string{"d1", "d2"}, ticket, OpEdit).Allowed)
	require.False(t, CanPerform(agent, []string{"d2"}, ticket, OpEdit).Allowed)
	require.False(t, CanPerform(agent, nil, ticket, OpView).Allowed)
}

func TestCanPerformUserScopedToOwnTickets(t *testing.T) {
	creator := testUser("u1", domain.RoleUser)
	other := testUser("u2", domain.RoleUser)
	ticket := testTicket("u1", "d1")

	require.True(t, CanPerform(creator, nil, ticket, OpView).Allowed)
	require.True(t, CanPerform(creator, nil, ticket, OpDelete).Allowed)
	require.False(t, CanPerform(other, nil, ticket, OpView).Allowed)
}

func TestCanPerformNilActorOrTicket(t *testing.T) {
	require.False(t, CanPerform(nil, nil, testTicket("u1", "d1"), OpView).Allowed)
	require.False(t, CanPerform(testUser("u1", domain.RoleUser), nil, nil, OpView).Allowed)
}

func TestValidateReassignTarget(t *testing.T) {
	ticket := testTicket("u1", "d1")
	agentActor := testUser("a1", domain.RoleAgent)
	admin := testUser("admin", domain.RoleAdmin)

	inDept := testUser("a2", domain.RoleAgent)
	require.True(t, ValidateReassignTarget(agentActor, inDept, []string{"d1"}, ticket).Allowed)

	// non-admin actors cannot route outside the department
	outside := testUser("a3", domain.RoleAgent)
	require.False(t, ValidateReassignTarget(agentActor, outside, []string{"d2"}, ticket).Allowed)

	// admins may, as long as the target is an active agent
	require.True(t, ValidateReassignTarget(admin, outside, []string{"d2"}, ticket).Allowed)

	inactive := testUser("a4", domain.RoleAgent)
	inactive.Status = domain.UserStatusInactive
	require.False(t, ValidateReassignTarget(admin, inactive, []string{"d1"}, ticket).Allowed)

	require.False(t, ValidateReassignTarget(admin, testUser("u2", domain.RoleUser), []string{"d1"}, ticket).Allowed)
	require.False(t, ValidateReassignTarget(admin, nil, nil, ticket).Allowed)
}

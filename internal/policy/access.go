package policy

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Operation enumerates gated ticket operations.
type Operation string

const (
	OpView     Operation = "view"
	OpEdit     Operation = "edit"
	OpDelete   Operation = "delete"
	OpReassign Operation = "reassign"
	OpComment  Operation = "comment"
	OpClose    Operation = "close"
)

// Decision is the result of an access check.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// CanPerform decides whether the actor may run the operation on the ticket.
// actorDepartments is the actor's department membership set (empty unless
// the actor is an agent); the caller resolves it through the identity
// directory so this stays a pure predicate.
//
// Precedence: inactive principals are denied everything; admins are allowed
// everything; comments are open to every active principal regardless of
// department or ownership; agents are scoped to their departments; everyone
// else is scoped to tickets they created. Branch membership never gates
// ticket access.
func CanPerform(actor *domain.User, actorDepartments []string, ticket *domain.Ticket, op Operation) Decision {
	if actor == nil || ticket == nil {
		return deny("no principal")
	}
	if !actor.IsActive() {
		return deny("principal inactive")
	}
	if actor.Role == domain.RoleAdmin {
		return allow()
	}
	if op == OpComment {
		return allow()
	}
	if actor.Role == domain.RoleAgent {
		for _, dept := range actorDepartments {
			if dept == ticket.DepartmentID {
				return allow()
			}
		}
		return deny("ticket outside agent departments")
	}
	if ticket.CreatorID == actor.ID {
		return allow()
	}
	return deny("ticket belongs to another user")
}

// ValidateReassignTarget checks the new assignee independently of who issues
// the request: the target must be an agent, and must belong to the ticket's
// department unless the issuer is an admin.
func ValidateReassignTarget(actor *domain.User, target *domain.User, targetDepartments []string, ticket *domain.Ticket) Decision {
	if target == nil {
		return deny("assignee not found")
	}
	if target.Role != domain.RoleAgent {
		return deny("assignee is not an agent")
	}
	if !target.IsActive() {
		return deny("assignee inactive")
	}
	if actor != nil && actor.Role == domain.RoleAdmin {
		return allow()
	}
	for _, dept := range targetDepartments {
		if dept == ticket.DepartmentID {
			return allow()
		}
	}
	return deny("assignee outside ticket department")
}

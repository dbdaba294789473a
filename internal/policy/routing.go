package policy

import (
	"math/rand"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Router selects the initial assignee for a new ticket. The pick function
// returns an index in [0,n) and defaults to a uniform random draw; tests
// inject a deterministic one.
type Router struct {
	pick func(n int) int
}

// NewRouter builds a router with uniform random fallback selection.
func NewRouter() *Router {
	return &Router{pick: rand.Intn}
}

// NewRouterWithPick builds a router with a custom selection function.
func NewRouterWithPick(pick func(n int) int) *Router {
	return &Router{pick: pick}
}

// SelectAssignee applies the routing rules:
//
//  1. A category owner that is currently assigned to the department wins
//     deterministically.
//  2. Otherwise one of the department's agents is drawn uniformly at random.
//  3. An empty agent pool yields nil — an unassigned ticket is legitimate,
//     not an error.
//
// departmentAgents is the set of agents assigned to the ticket's department.
func (r *Router) SelectAssignee(category *domain.Category, departmentAgents []domain.User) *string {
	if category != nil && category.OwnerAgentID != nil {
		for i := range departmentAgents {
			if departmentAgents[i].ID == *category.OwnerAgentID {
				id := departmentAgents[i].ID
				return &id
			}
		}
	}
	if len(departmentAgents) == 0 {
		return nil
	}
	id := departmentAgents[r.pick(len(departmentAgents))].ID
	return &id
}

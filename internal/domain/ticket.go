package domain

import "time"

// TicketState enumerates lifecycle states for tickets.
type TicketState string

const (
	TicketStateOpen      TicketState = "OPEN"
	TicketStateInProcess TicketState = "IN_PROCESS"
	TicketStateClosed    TicketState = "CLOSED"
)

// ParseTicketState validates a state string against the closed set.
func ParseTicketState(s string) (TicketState, bool) {
	switch TicketState(s) {
	case TicketStateOpen, TicketStateInProcess, TicketStateClosed:
		return TicketState(s), true
	}
	return "", false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// ParseTicketPriority validates a priority string against the closed set.
func ParseTicketPriority(s string) (TicketPriority, bool) {
	switch TicketPriority(s) {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return TicketPriority(s), true
	}
	return "", false
}

// TicketStates lists all states in lifecycle order.
func TicketStates() []TicketState {
	return []TicketState{TicketStateOpen, TicketStateInProcess, TicketStateClosed}
}

// TicketPriorities lists all priorities from least to most urgent.
func TicketPriorities() []TicketPriority {
	return []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent}
}

// Ticket is the aggregate for support requests.
//
// Invariants maintained by the lifecycle engine: State==CLOSED exactly when
// ClosedAt is set; AssigneeID, when set, belongs to the ticket's department;
// CategoryID belongs to DepartmentID. BranchID is a snapshot of the
// creator's active branch at creation time and never changes afterwards.
type Ticket struct {
	ID           string
	CreatorID    string
	AssigneeID   *string
	BranchID     string
	DepartmentID string
	CategoryID   string
	Title        string
	Description  string
	State        TicketState
	Priority     TicketPriority
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ClosedAt     *time.Time
}

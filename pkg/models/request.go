package models

import "time"

// RequestStatus enumerates the lifecycle states of a help request.
type RequestStatus string

const (
	StatusPending    RequestStatus = "PENDING"
	StatusResolved   RequestStatus = "RESOLVED"
	StatusUnresolved RequestStatus = "UNRESOLVED"
)

// Valid reports whether s is one of the known lifecycle states.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusResolved, StatusUnresolved:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == StatusResolved || s == StatusUnresolved
}

// Unresolved reasons recorded on the UNRESOLVED transition. The field is free
// text; these are the two values the system itself writes.
const (
	ReasonTimeout = "timeout"
	ReasonManual  = "manual"
)

// HelpRequest is a customer question escalated to a supervisor. It starts
// PENDING and ends in exactly one of the terminal states; SupervisorAnswer and
// ResolvedAt are set only on RESOLVED, UnresolvedAt and UnresolvedReason only
// on UNRESOLVED.
type HelpRequest struct {
	ID               string        `json:"id"`
	Question         string        `json:"question"`
	CustomerID       string        `json:"customerId"`
	Status           RequestStatus `json:"status"`
	TimeoutMinutes   int           `json:"timeoutMinutes"`
	SupervisorAnswer string        `json:"supervisorAnswer,omitempty"`
	UnresolvedReason string        `json:"unresolvedReason,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	ResolvedAt       *time.Time    `json:"resolvedAt,omitempty"`
	UnresolvedAt     *time.Time    `json:"unresolvedAt,omitempty"`
}

// Deadline is the instant after which a still-PENDING request is considered
// timed out.
func (r *HelpRequest) Deadline() time.Time {
	return r.CreatedAt.Add(time.Duration(r.TimeoutMinutes) * time.Minute)
}

// Overdue reports whether the request's deadline has passed at the given
// instant. It says nothing about status; callers combine it with a PENDING
// check.
func (r *HelpRequest) Overdue(now time.Time) bool {
	return r.Deadline().Before(now)
}

package models

import "time"

// RequestEventType identifies the lifecycle transition an event describes.
type RequestEventType string

const (
	EventRequestTimeout  RequestEventType = "request.timeout"
	EventRequestResolved RequestEventType = "request.resolved"
)

// RequestEvent is the payload published when a help request reaches a
// terminal state. Consumers use it to notify the customer (or the supervisor
// dashboard) out of band; the core attaches no meaning to delivery.
type RequestEvent struct {
	Type       RequestEventType `json:"type"`
	RequestID  string           `json:"requestId"`
	CustomerID string           `json:"customerId"`
	Question   string           `json:"question"`
	Answer     string           `json:"answer,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	Timestamp  time.Time        `json:"timestamp"`
}

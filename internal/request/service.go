// Package request owns the help-request lifecycle: creation, supervisor
// resolution, and the UNRESOLVED transition. All mutations go through the
// store's conditional updates; nothing outside this package (and the sweeper)
// writes request state.
package request

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/frontdesk-ai/frontdesk/internal/events"
	"github.com/frontdesk-ai/frontdesk/internal/faults"
	"github.com/frontdesk-ai/frontdesk/internal/normalize"
	"github.com/frontdesk-ai/frontdesk/internal/store"
	"github.com/frontdesk-ai/frontdesk/pkg/models"
)

// DefaultTimeoutMinutes is how long a request may stay PENDING before the
// sweeper considers it stale.
const DefaultTimeoutMinutes = 30

// Config tunes the lifecycle service.
type Config struct {
	// TimeoutMinutes is assigned to new requests. Zero means
	// DefaultTimeoutMinutes.
	TimeoutMinutes int `yaml:"timeout_minutes"`

	// DefaultCustomerID is used when the caller supplies none.
	DefaultCustomerID string `yaml:"default_customer_id"`
}

// Service implements the help-request lifecycle.
type Service struct {
	requests  store.RequestStore
	knowledge store.KnowledgeStore
	notifier  events.Notifier
	config    Config
	now       func() time.Time
}

// NewService creates a lifecycle service. A nil notifier falls back to log
// output.
func NewService(requests store.RequestStore, knowledge store.KnowledgeStore, notifier events.Notifier, config Config) *Service {
	if notifier == nil {
		notifier = events.LogNotifier{}
	}
	if config.TimeoutMinutes <= 0 {
		config.TimeoutMinutes = DefaultTimeoutMinutes
	}
	if config.DefaultCustomerID == "" {
		config.DefaultCustomerID = "anonymous"
	}
	return &Service{
		requests:  requests,
		knowledge: knowledge,
		notifier:  notifier,
		config:    config,
		now:       time.Now,
	}
}

// Create validates the question and stores a new PENDING request.
func (s *Service) Create(ctx context.Context, question, customerID string) (*models.HelpRequest, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, faults.Invalid("question", "must be a non-empty string")
	}
	if customerID == "" {
		customerID = s.config.DefaultCustomerID
	}

	req := &models.HelpRequest{
		ID:             ulid.Make().String(),
		Question:       question,
		CustomerID:     customerID,
		Status:         models.StatusPending,
		TimeoutMinutes: s.config.TimeoutMinutes,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.requests.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("create help request: %w", err)
	}
	log.Printf("created help request %s for %s: %q", req.ID, req.CustomerID, req.Question)
	return req, nil
}

// Resolve applies the supervisor's answer to a PENDING request and folds it
// into the knowledge base, keyed by the normalized form of the request's
// original question. Resolving a request that already reached a terminal
// state fails with a ConflictError rather than re-resolving.
func (s *Service) Resolve(ctx context.Context, id, answer string) (*models.HelpRequest, error) {
	if id == "" {
		return nil, faults.Invalid("requestId", "required")
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, faults.Invalid("answer", "must be a non-empty string")
	}

	req, err := s.requests.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	at := s.now().UTC()
	applied, err := s.requests.ResolveRequest(ctx, id, answer, at)
	if err != nil {
		return nil, fmt.Errorf("resolve help request: %w", err)
	}
	if !applied {
		// The status read above may predate the competing write; report the
		// state the request actually landed in.
		current, err := s.requests.GetRequest(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &faults.ConflictError{RequestID: id, Status: string(current.Status)}
	}

	req.Status = models.StatusResolved
	req.SupervisorAnswer = answer
	req.ResolvedAt = &at

	entry := &models.KnowledgeEntry{
		ID:                 uuid.New().String(),
		NormalizedQuestion: normalize.Normalize(req.Question),
		Answer:             answer,
		Source:             models.SourceSupervisor,
		CreatedAt:          at,
	}
	if err := s.knowledge.AddKnowledge(ctx, entry); err != nil {
		// The request is already RESOLVED; the learned answer is lost.
		return nil, fmt.Errorf("store knowledge for request %s: %w", id, err)
	}

	if err := s.notifier.Notify(ctx, models.RequestEvent{
		Type:       models.EventRequestResolved,
		RequestID:  req.ID,
		CustomerID: req.CustomerID,
		Question:   req.Question,
		Answer:     answer,
		Timestamp:  at,
	}); err != nil {
		log.Printf("notify resolution of request %s: %v", req.ID, err)
	}

	return req, nil
}

// MarkUnresolved transitions a PENDING request to UNRESOLVED. The write is
// conditional: a request resolved between read and write is left untouched
// and the call fails with a ConflictError. An empty reason defaults to
// "manual".
func (s *Service) MarkUnresolved(ctx context.Context, id, reason string) (*models.HelpRequest, error) {
	if id == "" {
		return nil, faults.Invalid("requestId", "required")
	}
	if reason == "" {
		reason = models.ReasonManual
	}

	at := s.now().UTC()
	applied, err := s.requests.MarkUnresolved(ctx, id, reason, at)
	if err != nil {
		return nil, err
	}
	if !applied {
		req, err := s.requests.GetRequest(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &faults.ConflictError{RequestID: id, Status: string(req.Status)}
	}

	return s.requests.GetRequest(ctx, id)
}

// ListByStatus lists requests with the given status, most recent first. An
// empty status lists everything.
func (s *Service) ListByStatus(ctx context.Context, status models.RequestStatus) ([]*models.HelpRequest, error) {
	if status != "" && !status.Valid() {
		return nil, faults.Invalid("status", "must be PENDING, RESOLVED or UNRESOLVED")
	}
	return s.requests.ListRequests(ctx, status)
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/frontdesk-ai/frontdesk/internal/faults"
	"github.com/frontdesk-ai/frontdesk/pkg/models"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and the
// "memory" driver for throwaway runs; the conditional-update semantics are
// identical to the SQL store's.
type MemoryStore struct {
	mu        sync.RWMutex
	requests  []*models.HelpRequest
	knowledge []*models.KnowledgeEntry
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) findRequest(id string) *models.HelpRequest {
	for _, req := range s.requests {
		if req.ID == id {
			return req
		}
	}
	return nil
}

func copyRequest(req *models.HelpRequest) *models.HelpRequest {
	out := *req
	if req.ResolvedAt != nil {
		t := *req.ResolvedAt
		out.ResolvedAt = &t
	}
	if req.UnresolvedAt != nil {
		t := *req.UnresolvedAt
		out.UnresolvedAt = &t
	}
	return &out
}

// CreateRequest stores a copy of the request.
func (s *MemoryStore) CreateRequest(ctx context.Context, req *models.HelpRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, copyRequest(req))
	return nil
}

// GetRequest returns a copy of the request or faults.ErrNotFound.
func (s *MemoryStore) GetRequest(ctx context.Context, id string) (*models.HelpRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req := s.findRequest(id)
	if req == nil {
		return nil, faults.ErrNotFound
	}
	return copyRequest(req), nil
}

// ListRequests returns matching requests, most recent first.
func (s *MemoryStore) ListRequests(ctx context.Context, status models.RequestStatus) ([]*models.HelpRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.HelpRequest
	for _, req := range s.requests {
		if status == "" || req.Status == status {
			out = append(out, copyRequest(req))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if status == models.StatusUnresolved {
			return out[i].UnresolvedAt.After(*out[j].UnresolvedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ResolveRequest applies the PENDING -> RESOLVED compare-and-set.
func (s *MemoryStore) ResolveRequest(ctx context.Context, id, answer string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := s.findRequest(id)
	if req == nil {
		return false, faults.ErrNotFound
	}
	if req.Status != models.StatusPending {
		return false, nil
	}
	req.Status = models.StatusResolved
	req.SupervisorAnswer = answer
	t := at
	req.ResolvedAt = &t
	return true, nil
}

// MarkUnresolved applies the PENDING -> UNRESOLVED compare-and-set.
func (s *MemoryStore) MarkUnresolved(ctx context.Context, id, reason string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := s.findRequest(id)
	if req == nil {
		return false, faults.ErrNotFound
	}
	if req.Status != models.StatusPending {
		return false, nil
	}
	req.Status = models.StatusUnresolved
	req.UnresolvedReason = reason
	t := at
	req.UnresolvedAt = &t
	return true, nil
}

// AddKnowledge appends a copy of the entry.
func (s *MemoryStore) AddKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *entry
	s.knowledge = append(s.knowledge, &e)
	return nil
}

// FindExact returns the oldest entry whose normalized question equals the
// key, or nil on a miss.
func (s *MemoryStore) FindExact(ctx context.Context, normalized string) (*models.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.knowledge {
		if entry.NormalizedQuestion == normalized {
			e := *entry
			return &e, nil
		}
	}
	return nil, nil
}

// FindFuzzy applies the escaped substring pattern in insertion order.
func (s *MemoryStore) FindFuzzy(ctx context.Context, normalized string) (*models.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, err := matchFuzzy(s.knowledge, normalized)
	if entry == nil || err != nil {
		return nil, err
	}
	e := *entry
	return &e, nil
}

// ListKnowledge returns all entries, most recent first.
func (s *MemoryStore) ListKnowledge(ctx context.Context) ([]*models.KnowledgeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.KnowledgeEntry, 0, len(s.knowledge))
	for i := len(s.knowledge) - 1; i >= 0; i-- {
		e := *s.knowledge[i]
		out = append(out, &e)
	}
	return out, nil
}

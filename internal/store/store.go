// Package store persists help requests and knowledge entries. The services
// depend only on the interfaces defined here; implementations are the
// SQL-backed store (sqlite or Postgres) and an in-memory store for tests and
// throwaway runs.
package store

import (
	"context"
	"regexp"
	"time"

	"github.com/frontdesk-ai/frontdesk/pkg/models"
)

// RequestStore owns all mutation of help requests. Terminal transitions are
// single-row conditional writes: they apply only if the request is still
// PENDING at write time, and report whether the write changed anything.
type RequestStore interface {
	CreateRequest(ctx context.Context, req *models.HelpRequest) error

	// GetRequest returns faults.ErrNotFound when no request has the id.
	GetRequest(ctx context.Context, id string) (*models.HelpRequest, error)

	// ListRequests returns requests with the given status, most recent
	// first (by UnresolvedAt for UNRESOLVED listings, CreatedAt otherwise).
	// An empty status lists everything.
	ListRequests(ctx context.Context, status models.RequestStatus) ([]*models.HelpRequest, error)

	// ResolveRequest is a compare-and-set: it transitions the request to
	// RESOLVED only if it is still PENDING, returning whether the write
	// applied. A missing id yields faults.ErrNotFound.
	ResolveRequest(ctx context.Context, id, answer string, at time.Time) (bool, error)

	// MarkUnresolved is the matching compare-and-set for the UNRESOLVED
	// transition.
	MarkUnresolved(ctx context.Context, id, reason string, at time.Time) (bool, error)
}

// KnowledgeStore is append-only: Add is the sole mutator and lookups are
// side-effect-free. Lookup misses are (nil, nil), not errors.
type KnowledgeStore interface {
	AddKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error
	FindExact(ctx context.Context, normalized string) (*models.KnowledgeEntry, error)
	FindFuzzy(ctx context.Context, normalized string) (*models.KnowledgeEntry, error)

	// ListKnowledge returns all entries, most recent first.
	ListKnowledge(ctx context.Context) ([]*models.KnowledgeEntry, error)
}

// Store is the full persistence surface wired at startup.
type Store interface {
	RequestStore
	KnowledgeStore
	Ping(ctx context.Context) error
	Close() error
}

// matchFuzzy implements the relaxed fallback lookup shared by both store
// implementations: the query is used as a case-insensitive pattern against
// each stored normalized question, with metacharacters escaped so user text
// can never form an unintended expression. Entries are scanned in insertion
// order; the first match wins. An empty query matches nothing.
func matchFuzzy(entries []*models.KnowledgeEntry, normalized string) (*models.KnowledgeEntry, error) {
	if normalized == "" {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(normalized))
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if re.MatchString(entry.NormalizedQuestion) {
			return entry, nil
		}
	}
	return nil, nil
}

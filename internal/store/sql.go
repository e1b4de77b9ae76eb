package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/frontdesk-ai/frontdesk/internal/faults"
	"github.com/frontdesk-ai/frontdesk/pkg/models"
)

// Supported SQL drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// timeLayout is a fixed-width RFC3339 form (zero-padded fractional seconds,
// always UTC) so that lexicographic ORDER BY on the text column matches
// chronological order in both engines.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLStore implements Store on database/sql. The schema and every query stick
// to the portable subset shared by sqlite and Postgres: TEXT ids, $N
// placeholders, timestamps as fixed-width UTC text.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens the database for the given driver and DSN, verifies
// connectivity and applies the schema.
func NewSQLStore(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}

	s := &SQLStore{db: db}
	if err := s.Ping(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s store: %w", driver, err)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s store: %w", driver, err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS help_requests (
		id                TEXT PRIMARY KEY,
		question          TEXT NOT NULL,
		customer_id       TEXT NOT NULL,
		status            TEXT NOT NULL,
		timeout_minutes   INTEGER NOT NULL,
		supervisor_answer TEXT,
		unresolved_reason TEXT,
		created_at        TEXT NOT NULL,
		resolved_at       TEXT,
		unresolved_at     TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_requests_status ON help_requests(status);
	CREATE INDEX IF NOT EXISTS idx_requests_created ON help_requests(created_at);

	CREATE TABLE IF NOT EXISTS knowledge_entries (
		id                  TEXT PRIMARY KEY,
		question_normalized TEXT NOT NULL,
		answer              TEXT NOT NULL,
		source              TEXT NOT NULL,
		created_at          TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_knowledge_question ON knowledge_entries(question_normalized);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// CreateRequest inserts a new help request row.
func (s *SQLStore) CreateRequest(ctx context.Context, req *models.HelpRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO help_requests
			(id, question, customer_id, status, timeout_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		req.ID, req.Question, req.CustomerID, string(req.Status),
		req.TimeoutMinutes, encodeTime(req.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert help request: %w", err)
	}
	return nil
}

const requestColumns = `id, question, customer_id, status, timeout_minutes,
	supervisor_answer, unresolved_reason, created_at, resolved_at, unresolved_at`

func scanRequest(row interface{ Scan(...any) error }) (*models.HelpRequest, error) {
	var (
		req                      models.HelpRequest
		answer, reason           sql.NullString
		createdAt                string
		resolvedAt, unresolvedAt sql.NullString
		status                   string
	)
	err := row.Scan(&req.ID, &req.Question, &req.CustomerID, &status,
		&req.TimeoutMinutes, &answer, &reason, &createdAt, &resolvedAt, &unresolvedAt)
	if err != nil {
		return nil, err
	}
	req.Status = models.RequestStatus(status)
	req.SupervisorAnswer = answer.String
	req.UnresolvedReason = reason.String
	if req.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	if resolvedAt.Valid {
		t, err := decodeTime(resolvedAt.String)
		if err != nil {
			return nil, fmt.Errorf("decode resolved_at: %w", err)
		}
		req.ResolvedAt = &t
	}
	if unresolvedAt.Valid {
		t, err := decodeTime(unresolvedAt.String)
		if err != nil {
			return nil, fmt.Errorf("decode unresolved_at: %w", err)
		}
		req.UnresolvedAt = &t
	}
	return &req, nil
}

// GetRequest fetches a single help request by id.
func (s *SQLStore) GetRequest(ctx context.Context, id string) (*models.HelpRequest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM help_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, faults.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get help request: %w", err)
	}
	return req, nil
}

// ListRequests lists help requests, most recent first. UNRESOLVED listings
// order by the unresolve time, everything else by creation time.
func (s *SQLStore) ListRequests(ctx context.Context, status models.RequestStatus) ([]*models.HelpRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM help_requests`
	var args []any
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	if status == models.StatusUnresolved {
		query += ` ORDER BY unresolved_at DESC`
	} else {
		query += ` ORDER BY created_at DESC`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list help requests: %w", err)
	}
	defer rows.Close()

	var out []*models.HelpRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan help request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list help requests: %w", err)
	}
	return out, nil
}

// ResolveRequest applies the PENDING -> RESOLVED transition as a conditional
// single-row update. It returns false without error when the request exists
// but already left PENDING.
func (s *SQLStore) ResolveRequest(ctx context.Context, id, answer string, at time.Time) (bool, error) {
	return s.transition(ctx, id, `
		UPDATE help_requests
		SET status = $1, supervisor_answer = $2, resolved_at = $3
		WHERE id = $4 AND status = $5`,
		string(models.StatusResolved), answer, encodeTime(at), id, string(models.StatusPending))
}

// MarkUnresolved applies the PENDING -> UNRESOLVED transition as a conditional
// single-row update.
func (s *SQLStore) MarkUnresolved(ctx context.Context, id, reason string, at time.Time) (bool, error) {
	return s.transition(ctx, id, `
		UPDATE help_requests
		SET status = $1, unresolved_reason = $2, unresolved_at = $3
		WHERE id = $4 AND status = $5`,
		string(models.StatusUnresolved), reason, encodeTime(at), id, string(models.StatusPending))
}

func (s *SQLStore) transition(ctx context.Context, id, query string, args ...any) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update help request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update help request: %w", err)
	}
	if n > 0 {
		return true, nil
	}

	// Nothing changed: either the id is unknown or the request already
	// reached a terminal state. Distinguish the two for the caller.
	var exists int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM help_requests WHERE id = $1`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, faults.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("check help request: %w", err)
	}
	return false, nil
}

// AddKnowledge appends a knowledge entry. There is deliberately no update or
// delete statement for knowledge_entries anywhere in this package.
func (s *SQLStore) AddKnowledge(ctx context.Context, entry *models.KnowledgeEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO knowledge_entries
			(id, question_normalized, answer, source, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.NormalizedQuestion, entry.Answer, entry.Source,
		encodeTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert knowledge entry: %w", err)
	}
	return nil
}

// FindExact looks up a knowledge entry by equality on the normalized
// question. The oldest matching entry wins, mirroring insertion-order
// matching.
func (s *SQLStore) FindExact(ctx context.Context, normalized string) (*models.KnowledgeEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, question_normalized, answer, source, created_at
		FROM knowledge_entries
		WHERE question_normalized = $1
		ORDER BY created_at ASC
		LIMIT 1`, normalized)
	entry, err := scanKnowledge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find knowledge entry: %w", err)
	}
	return entry, nil
}

// FindFuzzy scans entries in insertion order and applies the escaped
// substring pattern in Go, keeping the match semantics identical across
// engines.
func (s *SQLStore) FindFuzzy(ctx context.Context, normalized string) (*models.KnowledgeEntry, error) {
	if normalized == "" {
		return nil, nil
	}
	entries, err := s.listKnowledge(ctx, "ASC")
	if err != nil {
		return nil, err
	}
	return matchFuzzy(entries, normalized)
}

// ListKnowledge returns all knowledge entries, most recent first.
func (s *SQLStore) ListKnowledge(ctx context.Context) ([]*models.KnowledgeEntry, error) {
	return s.listKnowledge(ctx, "DESC")
}

func (s *SQLStore) listKnowledge(ctx context.Context, order string) ([]*models.KnowledgeEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_normalized, answer, source, created_at
		FROM knowledge_entries
		ORDER BY created_at `+order)
	if err != nil {
		return nil, fmt.Errorf("list knowledge entries: %w", err)
	}
	defer rows.Close()

	var out []*models.KnowledgeEntry
	for rows.Next() {
		entry, err := scanKnowledge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan knowledge entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list knowledge entries: %w", err)
	}
	return out, nil
}

func scanKnowledge(row interface{ Scan(...any) error }) (*models.KnowledgeEntry, error) {
	var (
		entry     models.KnowledgeEntry
		createdAt string
	)
	err := row.Scan(&entry.ID, &entry.NormalizedQuestion, &entry.Answer,
		&entry.Source, &createdAt)
	if err != nil {
		return nil, err
	}
	if entry.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}
	return &entry, nil
}

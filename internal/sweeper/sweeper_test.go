package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/frontdesk-ai/frontdesk/internal/store"
	"github.com/frontdesk-ai/frontdesk/pkg/models"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.RequestEvent
}

func (n *recordingNotifier) Notify(ctx context.Context, event models.RequestEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func addPending(t *testing.T, st *store.MemoryStore, id string, createdAt time.Time, timeoutMinutes int) {
	t.Helper()
	err := st.CreateRequest(context.Background(), &models.HelpRequest{
		ID:             id,
		Question:       "question " + id,
		CustomerID:     "cust",
		Status:         models.StatusPending,
		TimeoutMinutes: timeoutMinutes,
		CreatedAt:      createdAt,
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
}

func TestSweepMarksStaleRequests(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	sw := New(st, notifier, Config{})

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sw.now = func() time.Time { return now }

	addPending(t, st, "stale", now.Add(-45*time.Minute), 30)
	addPending(t, st, "fresh", now.Add(-5*time.Minute), 30)

	n, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("transitioned = %d, want 1", n)
	}

	stale, _ := st.GetRequest(context.Background(), "stale")
	if stale.Status != models.StatusUnresolved {
		t.Errorf("stale status = %s, want UNRESOLVED", stale.Status)
	}
	if stale.UnresolvedReason != models.ReasonTimeout {
		t.Errorf("reason = %q, want timeout", stale.UnresolvedReason)
	}

	fresh, _ := st.GetRequest(context.Background(), "fresh")
	if fresh.Status != models.StatusPending {
		t.Errorf("fresh status = %s, want PENDING", fresh.Status)
	}

	if notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1", notifier.count())
	}
}

func TestSweepIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	sw := New(st, notifier, Config{})

	now := time.Now().UTC()
	sw.now = func() time.Time { return now }
	addPending(t, st, "stale", now.Add(-2*time.Hour), 30)

	if n, _ := sw.Sweep(context.Background()); n != 1 {
		t.Fatalf("first sweep transitioned %d, want 1", n)
	}
	if n, _ := sw.Sweep(context.Background()); n != 0 {
		t.Errorf("second sweep transitioned %d, want 0", n)
	}
	if notifier.count() != 1 {
		t.Errorf("notifications = %d, want exactly 1", notifier.count())
	}
}

func TestSweepSkipsConcurrentlyResolved(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &recordingNotifier{}
	sw := New(st, notifier, Config{})

	now := time.Now().UTC()
	sw.now = func() time.Time { return now }
	addPending(t, st, "stale", now.Add(-2*time.Hour), 30)

	// Supervisor answers just before the sweep's write lands.
	applied, err := st.ResolveRequest(context.Background(), "stale", "answered in time", now)
	if err != nil || !applied {
		t.Fatalf("resolve: applied=%v err=%v", applied, err)
	}

	if n, _ := sw.Sweep(context.Background()); n != 0 {
		t.Errorf("sweep transitioned %d, want 0", n)
	}
	got, _ := st.GetRequest(context.Background(), "stale")
	if got.Status != models.StatusResolved || got.SupervisorAnswer != "answered in time" {
		t.Errorf("request clobbered by sweep: %+v", got)
	}
	if notifier.count() != 0 {
		t.Errorf("notifications = %d, want 0 for a lost race", notifier.count())
	}
}

// faultyStore fails the conditional write for one request id.
type faultyStore struct {
	*store.MemoryStore
	failID string
}

func (f *faultyStore) MarkUnresolved(ctx context.Context, id, reason string, at time.Time) (bool, error) {
	if id == f.failID {
		return false, errors.New("write aborted")
	}
	return f.MemoryStore.MarkUnresolved(ctx, id, reason, at)
}

func TestSweepSkipsFailingItem(t *testing.T) {
	fs := &faultyStore{MemoryStore: store.NewMemoryStore(), failID: "broken"}
	notifier := &recordingNotifier{}
	sw := New(fs, notifier, Config{})

	now := time.Now().UTC()
	sw.now = func() time.Time { return now }
	addPending(t, fs.MemoryStore, "broken", now.Add(-2*time.Hour), 30)
	addPending(t, fs.MemoryStore, "stale", now.Add(-2*time.Hour), 30)

	// The failing item is skipped; the rest of the pass still runs.
	n, err := sw.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n != 1 {
		t.Fatalf("transitioned = %d, want 1", n)
	}

	broken, _ := fs.MemoryStore.GetRequest(context.Background(), "broken")
	if broken.Status != models.StatusPending {
		t.Errorf("broken status = %s, want PENDING", broken.Status)
	}
	stale, _ := fs.MemoryStore.GetRequest(context.Background(), "stale")
	if stale.Status != models.StatusUnresolved {
		t.Errorf("stale status = %s, want UNRESOLVED", stale.Status)
	}
	if notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1", notifier.count())
	}
	if notifier.events[0].RequestID != "stale" {
		t.Errorf("notified request = %s, want stale", notifier.events[0].RequestID)
	}
}

// blockingStore delays the pending listing so a second sweep can be attempted
// while the first is still in flight.
type blockingStore struct {
	*store.MemoryStore
	release chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (b *blockingStore) ListRequests(ctx context.Context, status models.RequestStatus) ([]*models.HelpRequest, error) {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return b.MemoryStore.ListRequests(ctx, status)
}

func TestSweepNonOverlapping(t *testing.T) {
	bs := &blockingStore{
		MemoryStore: store.NewMemoryStore(),
		release:     make(chan struct{}),
		entered:     make(chan struct{}),
	}
	notifier := &recordingNotifier{}
	sw := New(bs, notifier, Config{})

	now := time.Now().UTC()
	sw.now = func() time.Time { return now }
	addPending(t, bs.MemoryStore, "stale", now.Add(-2*time.Hour), 30)

	firstDone := make(chan int)
	go func() {
		n, _ := sw.Sweep(context.Background())
		firstDone <- n
	}()
	<-bs.entered

	// The overlapping sweep is skipped entirely, not queued.
	if n, err := sw.Sweep(context.Background()); n != 0 || err != nil {
		t.Errorf("overlapping sweep: n=%d err=%v, want immediate no-op", n, err)
	}

	close(bs.release)
	if n := <-firstDone; n != 1 {
		t.Errorf("first sweep transitioned %d, want 1", n)
	}
	if notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1", notifier.count())
	}
}

func TestStartStop(t *testing.T) {
	st := store.NewMemoryStore()
	sw := New(st, &recordingNotifier{}, Config{Interval: 10 * time.Millisecond})

	now := time.Now().UTC()
	sw.now = func() time.Time { return now }
	addPending(t, st, "stale", now.Add(-2*time.Hour), 30)

	sw.Start(context.Background())
	sw.Start(context.Background()) // second start is a no-op

	deadline := time.After(2 * time.Second)
	for {
		got, _ := st.GetRequest(context.Background(), "stale")
		if got.Status == models.StatusUnresolved {
			break
		}
		select {
		case <-deadline:
			t.Fatal("sweeper never transitioned the stale request")
		case <-time.After(5 * time.Millisecond):
		}
	}

	sw.Stop()
	sw.Stop() // second stop is a no-op

	// No further sweeps after Stop: a newly stale request stays PENDING.
	addPending(t, st, "late", now.Add(-3*time.Hour), 30)
	time.Sleep(50 * time.Millisecond)
	got, _ := st.GetRequest(context.Background(), "late")
	if got.Status != models.StatusPending {
		t.Errorf("request swept after Stop: status = %s", got.Status)
	}
}

func TestDeadlineBoundary(t *testing.T) {
	st := store.NewMemoryStore()
	sw := New(st, &recordingNotifier{}, Config{})

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sw.now = func() time.Time { return now }

	// Exactly at the deadline is not yet overdue; one nanosecond past is.
	addPending(t, st, "at-deadline", now.Add(-30*time.Minute), 30)
	addPending(t, st, "past-deadline", now.Add(-30*time.Minute-time.Nanosecond), 30)

	if n, _ := sw.Sweep(context.Background()); n != 1 {
		t.Errorf("transitioned %d, want 1", n)
	}
	got, _ := st.GetRequest(context.Background(), "at-deadline")
	if got.Status != models.StatusPending {
		t.Errorf("at-deadline status = %s, want PENDING", got.Status)
	}
}

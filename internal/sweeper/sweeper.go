// Package sweeper runs the periodic pass that marks overdue PENDING help
// requests UNRESOLVED. It shares the request store with the live HTTP path;
// every transition is a per-row compare-and-set so a request resolved between
// the sweep's read and its write is left untouched.
package sweeper

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frontdesk-ai/frontdesk/internal/events"
	"github.com/frontdesk-ai/frontdesk/internal/store"
	"github.com/frontdesk-ai/frontdesk/pkg/models"
)

// DefaultInterval is the sweep cadence when none is configured.
const DefaultInterval = time.Minute

// Config tunes the sweeper.
type Config struct {
	Interval time.Duration `yaml:"interval"`
}

// Sweeper periodically transitions stale PENDING requests to UNRESOLVED with
// reason "timeout" and notifies the injected observer once per genuine
// transition.
type Sweeper struct {
	requests store.RequestStore
	notifier events.Notifier
	interval time.Duration
	now      func() time.Time

	inFlight atomic.Bool

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// New creates a sweeper. A nil notifier falls back to log output; a
// non-positive interval falls back to DefaultInterval.
func New(requests store.RequestStore, notifier events.Notifier, cfg Config) *Sweeper {
	if notifier == nil {
		notifier = events.LogNotifier{}
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		requests: requests,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

// Start launches the periodic sweep loop. It is a no-op if the loop is
// already running.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(ctx, s.stop, s.done)
	log.Printf("timeout sweeper started, interval=%s", s.interval)
}

// Stop ceases scheduling further sweeps and waits for an in-flight sweep to
// finish. It is a no-op if the loop is not running.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
	log.Printf("timeout sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := s.Sweep(ctx); err != nil {
				log.Printf("sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("sweep marked %d request(s) unresolved", n)
			}
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep performs one pass and reports how many requests it transitioned. If a
// sweep is already in flight the call returns immediately; overdue passes are
// skipped, never queued. Per-item failures are logged and do not abort the
// rest of the pass.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer s.inFlight.Store(false)

	now := s.now().UTC()
	pending, err := s.requests.ListRequests(ctx, models.StatusPending)
	if err != nil {
		return 0, err
	}

	transitioned := 0
	for _, req := range pending {
		if !req.Overdue(now) {
			continue
		}

		applied, err := s.requests.MarkUnresolved(ctx, req.ID, models.ReasonTimeout, s.now().UTC())
		if err != nil {
			log.Printf("mark request %s unresolved: %v", req.ID, err)
			continue
		}
		if !applied {
			// Resolved (or already swept) after our read; not ours to
			// report.
			continue
		}
		transitioned++

		if err := s.notifier.Notify(ctx, models.RequestEvent{
			Type:       models.EventRequestTimeout,
			RequestID:  req.ID,
			CustomerID: req.CustomerID,
			Question:   req.Question,
			Reason:     models.ReasonTimeout,
			Timestamp:  s.now().UTC(),
		}); err != nil {
			log.Printf("notify timeout of request %s: %v", req.ID, err)
		}
	}
	return transitioned, nil
}

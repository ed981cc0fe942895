// Package sequencer orders writes per call id. A call row is always written
// before the log entries that reference it; entries that arrive first wait in
// a per-call pending index and are retried on a bounded schedule.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
	"github.com/trunkstore-lab/trunkstore/internal/core/partition"
	"github.com/trunkstore-lab/trunkstore/internal/core/storage"
	"github.com/trunkstore-lab/trunkstore/internal/deadletter"
	"github.com/trunkstore-lab/trunkstore/internal/dedup"
	"github.com/trunkstore-lab/trunkstore/internal/metrics"
	"github.com/trunkstore-lab/trunkstore/internal/reference"
)

var (
	// ErrStopped is returned once Shutdown has been called.
	ErrStopped = errors.New("sequencer stopped")
	// ErrNotStarted is returned when a payload is submitted before Start.
	ErrNotStarted = errors.New("sequencer not started")
)

type envelope struct {
	correlationID uuid.UUID
	payload       *v1.Payload
	done          chan *Report
	settled       func()
}

// Sequencer routes envelopes to the worker owning their call id.
type Sequencer struct {
	gateway  storage.Gateway
	resolver *reference.Resolver
	parked   deadletter.Repository
	metrics  *metrics.PipelineMetrics
	order    *dedup.OrderTracker
	opts     Options

	committed *cache.Cache
	pending   atomic.Int64

	// ctx bounds every storage call. It is cancelled only when Shutdown
	// gives up waiting.
	ctx    context.Context
	cancel context.CancelFunc

	// quit is closed when Shutdown begins, releasing producers blocked on
	// a full queue so the write lock can be taken.
	quit     chan struct{}
	quitOnce sync.Once

	mu      sync.RWMutex
	started bool
	stopped bool
	workers []*worker
	group   errgroup.Group
}

// New creates a sequencer. m may be nil.
func New(
	gateway storage.Gateway,
	resolver *reference.Resolver,
	parked deadletter.Repository,
	m *metrics.PipelineMetrics,
	opts Options,
) *Sequencer {
	if gateway == nil {
		panic("sequencer: gateway must not be nil")
	}
	if resolver == nil {
		panic("sequencer: resolver must not be nil")
	}
	if parked == nil {
		panic("sequencer: dead-letter repository must not be nil")
	}
	opts = opts.normalized()

	ctx, cancel := context.WithCancel(context.Background())
	s := &Sequencer{
		gateway:   gateway,
		resolver:  resolver,
		parked:    parked,
		metrics:   m,
		order:     dedup.NewOrderTracker(opts.OrderWindow),
		opts:      opts,
		committed: cache.New(opts.CommittedTTL, 2*opts.CommittedTTL),
		ctx:       ctx,
		cancel:    cancel,
		quit:      make(chan struct{}),
	}
	s.workers = make([]*worker, opts.Workers)
	for i := range s.workers {
		s.workers[i] = newWorker(i, s)
	}
	return s
}

// Start launches the workers.
func (s *Sequencer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	for _, w := range s.workers {
		s.group.Go(w.run)
	}
	slog.Info("[Sequencer] Started",
		"workers", s.opts.Workers,
		"queue_size", s.opts.QueueSize,
		"retry_budget", s.opts.RetryBudget,
	)
}

// Enqueue hands p to its worker without waiting for the outcome. It blocks
// while the worker queue is full.
func (s *Sequencer) Enqueue(ctx context.Context, p *v1.Payload) (uuid.UUID, error) {
	env, err := s.enqueue(ctx, p, false, nil)
	if err != nil {
		return uuid.Nil, err
	}
	return env.correlationID, nil
}

// Submit enqueues p and waits for its report.
func (s *Sequencer) Submit(ctx context.Context, p *v1.Payload) (*Report, error) {
	return s.SubmitTracked(ctx, p, nil)
}

// SubmitTracked is Submit with a completion hook. settled is called once no
// record of p exists only in memory: every record was written, rejected or
// parked. For a report without deferred records that happens before
// SubmitTracked returns; otherwise it happens when the deferred records are
// released or expire. settled runs on a worker goroutine and must not block.
// It is never called when an error is returned before p was queued.
func (s *Sequencer) SubmitTracked(ctx context.Context, p *v1.Payload, settled func()) (*Report, error) {
	env, err := s.enqueue(ctx, p, true, settled)
	if err != nil {
		return nil, err
	}
	select {
	case r := <-env.done:
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Resubmit replays a parked payload. Settled is true when every record in
// it was stored or recognized as a duplicate.
func (s *Sequencer) Resubmit(ctx context.Context, p *v1.Payload) (bool, error) {
	r, err := s.Submit(ctx, p)
	if err != nil {
		return false, err
	}
	return r.Settled(), nil
}

func (s *Sequencer) enqueue(ctx context.Context, p *v1.Payload, wait bool, settled func()) (*envelope, error) {
	if p == nil {
		return nil, fmt.Errorf("payload is required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	env := &envelope{correlationID: uuid.New(), payload: p, settled: settled}
	if wait {
		env.done = make(chan *Report, 1)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return nil, ErrStopped
	}
	if !s.started {
		return nil, ErrNotStarted
	}

	w := s.workerFor(p.CallID)
	select {
	case w.queue <- env:
		s.metrics.SetQueueDepth(strconv.Itoa(w.id), len(w.queue))
		return env, nil
	case <-s.quit:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// NotifyCallCommitted tells the sequencer that callID's row exists, so its
// pending entries can be written without waiting for the next retry.
func (s *Sequencer) NotifyCallCommitted(callID string) {
	if callID == "" {
		return
	}
	s.committed.SetDefault(callID, struct{}{})

	w := s.workerFor(callID)
	select {
	case w.notify <- callID:
	default:
		// the next retry tick picks it up from the cache
	}
}

// Pending returns the number of buffered log entries across workers.
func (s *Sequencer) Pending() int {
	return int(s.pending.Load())
}

// Shutdown stops intake, lets workers finish queued envelopes and parks
// entries still waiting for their call. If ctx expires first, in-flight
// storage retries are abandoned and ctx.Err() is returned.
func (s *Sequencer) Shutdown(ctx context.Context) error {
	s.quitOnce.Do(func() { close(s.quit) })

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	started := s.started
	for _, w := range s.workers {
		close(w.queue)
	}
	s.mu.Unlock()

	if !started {
		s.cancel()
		return nil
	}

	slog.Info("[Sequencer] Draining worker queues")
	done := make(chan error, 1)
	go func() { done <- s.group.Wait() }()

	select {
	case err := <-done:
		s.cancel()
		slog.Info("[Sequencer] Stopped", "pending", s.Pending())
		return err
	case <-ctx.Done():
		s.cancel()
		<-done
		slog.Warn("[Sequencer] Shutdown deadline exceeded", "error", ctx.Err())
		return ctx.Err()
	}
}

func (s *Sequencer) workerFor(callID string) *worker {
	return s.workers[partition.Worker(callID, len(s.workers))]
}

func (s *Sequencer) isCommitted(callID string) bool {
	_, ok := s.committed.Get(callID)
	return ok
}

func (s *Sequencer) markCommitted(callID string) {
	s.committed.SetDefault(callID, struct{}{})
}

func (s *Sequencer) addPending(n int) {
	s.metrics.SetPending(int(s.pending.Add(int64(n))))
}

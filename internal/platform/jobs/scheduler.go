// Package jobs implements a durable one-shot deferred task scheduler. Tasks
// are keyed by tag for cancellation, persisted so pending work survives a
// restart, and delivered at least once: a task's row is removed only after
// its handler returns.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmhodges/clock"
	"github.com/rs/zerolog"
)

// ErrPastDue is returned by Enqueue when the requested delay is not strictly
// positive. Past-due work is dropped, never fired immediately.
var ErrPastDue = errors.New("job delay must be positive")

// Job is a single deferred task.
type Job struct {
	ID      uuid.UUID `json:"id"`
	Tag     string    `json:"tag"`
	RunAt   time.Time `json:"run_at"`
	Payload []byte    `json:"payload"`
}

// Store persists pending jobs.
type Store interface {
	Insert(ctx context.Context, job Job) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByTag(ctx context.Context, tag string) error
	ListPending(ctx context.Context) ([]Job, error)
}

// Handler is invoked when a job comes due. Handlers must tolerate duplicate
// delivery.
type Handler func(ctx context.Context, job Job)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the scheduler's clock. Tests use a fake.
func WithClock(clk clock.Clock) Option {
	return func(s *Scheduler) { s.clk = clk }
}

// WithTick overrides how often the scheduler checks for due jobs.
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) { s.tick = d }
}

// Scheduler owns the pending-job heap and the firing loop.
type Scheduler struct {
	mu      sync.Mutex
	queue   *jobQueue
	store   Store
	handler Handler
	clk     clock.Clock
	logger  zerolog.Logger
	tick    time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewScheduler creates a stopped scheduler. Call Start to load pending jobs
// and begin firing.
func NewScheduler(store Store, handler Handler, logger zerolog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		queue:   newJobQueue(),
		store:   store,
		handler: handler,
		clk:     clock.New(),
		logger:  logger,
		tick:    time.Second,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start reloads pending jobs from the store and launches the firing loop.
// Jobs whose run time passed while the process was down fire on the first
// tick.
func (s *Scheduler) Start(ctx context.Context) error {
	pending, err := s.store.ListPending(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for _, job := range pending {
		s.queue.add(job)
	}
	n := s.queue.pending()
	s.mu.Unlock()

	s.logger.Info().Int("pending", n).Msg("job scheduler started")

	go s.loop(ctx)
	return nil
}

// Stop terminates the firing loop and waits for it to exit.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

// Enqueue schedules a one-shot job after delay, replacing any pending job
// with the same tag. A non-positive delay is rejected with ErrPastDue.
func (s *Scheduler) Enqueue(ctx context.Context, tag string, payload []byte, delay time.Duration) error {
	if delay <= 0 {
		return ErrPastDue
	}

	if err := s.store.DeleteByTag(ctx, tag); err != nil {
		return err
	}

	job := Job{
		ID:      uuid.New(),
		Tag:     tag,
		RunAt:   s.clk.Now().Add(delay),
		Payload: payload,
	}
	if err := s.store.Insert(ctx, job); err != nil {
		return err
	}

	s.mu.Lock()
	s.queue.add(job)
	s.mu.Unlock()

	s.logger.Debug().Str("tag", tag).Time("run_at", job.RunAt).Msg("job enqueued")
	return nil
}

// Cancel removes the pending job with the given tag. Canceling a tag with no
// pending job is a no-op.
func (s *Scheduler) Cancel(ctx context.Context, tag string) error {
	s.mu.Lock()
	s.queue.cancel(tag)
	s.mu.Unlock()

	return s.store.DeleteByTag(ctx, tag)
}

// Pending returns the number of live pending jobs.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.pending()
}

// HasPending reports whether a live job exists for tag.
func (s *Scheduler) HasPending(tag string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.has(tag)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fireDue(ctx)
		}
	}
}

// FireDue runs every job whose run time has arrived. Exported for tests that
// drive the scheduler with a fake clock instead of the ticker.
func (s *Scheduler) FireDue(ctx context.Context) {
	s.fireDue(ctx)
}

func (s *Scheduler) fireDue(ctx context.Context) {
	now := s.clk.Now()

	for {
		s.mu.Lock()
		job, ok := s.queue.peek()
		if !ok || job.RunAt.After(now) {
			s.mu.Unlock()
			return
		}
		s.queue.pop()
		s.mu.Unlock()

		s.logger.Info().Str("tag", job.Tag).Time("run_at", job.RunAt).Msg("job firing")
		s.handler(ctx, job)

		// The row is removed only after the handler returns, so a crash
		// mid-handler redelivers on restart.
		if err := s.store.Delete(ctx, job.ID); err != nil {
			s.logger.Error().Err(err).Str("tag", job.Tag).Msg("failed to delete fired job")
		}
	}
}

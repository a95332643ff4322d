// Package scheduler runs a job periodically until it is stopped.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultCooldown is the pause after a failed iteration
const DefaultCooldown = time.Minute

// IntervalFunc returns the wait before the next run. It is called once per
// iteration so configuration changes apply without a restart.
type IntervalFunc func() time.Duration

// Job is one scheduled run
type Job func(ctx context.Context) error

// ErrAlreadyRunning is returned by Start on a running scheduler
var ErrAlreadyRunning = errors.New("scheduler already running")

// Scheduler sleeps for the current interval, then runs its job, forever.
// A failing job is logged and followed by a cooldown; it never ends the loop.
type Scheduler struct {
	interval IntervalFunc
	job      Job
	cooldown time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option customizes a Scheduler
type Option func(*Scheduler)

// WithCooldown sets the pause after a failed run
func WithCooldown(d time.Duration) Option {
	return func(s *Scheduler) { s.cooldown = d }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// New creates a stopped scheduler
func New(interval IntervalFunc, job Job, opts ...Option) *Scheduler {
	s := &Scheduler{
		interval: interval,
		job:      job,
		cooldown: DefaultCooldown,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("auto-sync loop started")
	defer s.logger.Info("auto-sync loop stopped")

	for {
		wait := s.interval()
		s.logger.Debug("next auto-sync scheduled", zap.Duration("in", wait))
		if !sleep(ctx, wait) {
			return
		}

		if err := s.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("auto-sync error", zap.Error(err), zap.Duration("cooldown", s.cooldown))
			if !sleep(ctx, s.cooldown) {
				return
			}
		}
	}
}

// runOnce turns a panicking job into an error
func (s *Scheduler) runOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("auto-sync panicked: %v", r)
		}
	}()
	return s.job(ctx)
}

// Start runs the loop in the background. The loop ends when ctx is cancelled
// or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done != nil {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go func() {
		defer close(done)
		s.Run(ctx)
	}()
	return nil
}

// Stop cancels the loop and waits for the current run to return.
// It is safe to call on a stopped scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// sleep waits for d and reports false if ctx ended first
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

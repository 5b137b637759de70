// Package scheduler runs a function immediately and then on every interval
// until stopped. A started Scheduler is the cancellation handle for its loop.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type Scheduler struct {
	interval time.Duration
	tickFn   func(context.Context)
	log      *slog.Logger

	running atomic.Bool
	ticks   atomic.Int64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(interval time.Duration, tickFn func(context.Context)) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.New("interval must be > 0")
	}
	if tickFn == nil {
		return nil, errors.New("tickFn must not be nil")
	}
	return &Scheduler{
		interval: interval,
		tickFn:   tickFn,
		log:      slog.Default().With("component", "scheduler", "interval", interval.String()),
		done:     make(chan struct{}),
	}, nil
}

// Start fires the first tick right away and returns false if already running.
func (s *Scheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running.Store(true)

	go s.loop(ctx, s.done)

	return true
}

// Stop cancels the loop and waits for an in-progress tick to return.
func (s *Scheduler) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running.Load() {
		return false
	}

	s.cancel()
	<-s.done
	s.running.Store(false)

	s.log.Info("scheduler stopped", "ticks", s.ticks.Load())
	return true
}

func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Ticks counts completed ticks, including the immediate one.
func (s *Scheduler) Ticks() int64 {
	return s.ticks.Load()
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started")

	s.safeTick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("scheduler stopping")
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			s.safeTick(ctx)
		}
	}
}

func (s *Scheduler) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("scheduler tick panic recovered", "panic", r)
		}
	}()

	start := time.Now()
	s.tickFn(ctx)
	s.ticks.Add(1)
	s.log.Debug("scheduler tick completed", "duration_ms", time.Since(start).Milliseconds())
}

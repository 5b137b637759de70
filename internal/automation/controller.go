// Package automation owns the periodic send loop: run state, the sent
// counter and the activity log.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LeventeLantos/sms-automation/internal/cache"
	"github.com/LeventeLantos/sms-automation/internal/dispatch"
	"github.com/LeventeLantos/sms-automation/internal/model"
	"github.com/LeventeLantos/sms-automation/internal/observability"
	"github.com/LeventeLantos/sms-automation/internal/phone"
	"github.com/LeventeLantos/sms-automation/internal/scheduler"
	"github.com/LeventeLantos/sms-automation/internal/service"
)

const receiptStoreTimeout = 2 * time.Second

type Controller struct {
	mode       dispatch.Mode
	sender     *service.Sender
	contentMax int
	receipts   cache.ReceiptCache

	now      func() time.Time
	newID    func() string
	interval func(model.Interval) time.Duration

	mu        sync.Mutex
	running   bool
	handle    *scheduler.Scheduler // non-nil iff running
	gen       uint64
	sentCount int
	cfg       *model.Configuration
	log       *activityLog
	subs      map[int]chan model.Snapshot
	nextSub   int

	inflight sync.WaitGroup
}

func New(d dispatch.Dispatcher, mode dispatch.Mode, contentMax, logCapacity int) *Controller {
	c := &Controller{
		mode:       mode,
		contentMax: contentMax,
		now:        time.Now,
		newID:      uuid.NewString,
		interval:   model.Interval.Duration,
		log:        newActivityLog(logCapacity),
		subs:       make(map[int]chan model.Snapshot),
	}
	c.sender = service.NewSender(d, contentMax).WithHooks(c.markSent, c.markFailed)
	return c
}

// WithCache stores a receipt for every successful send.
func (c *Controller) WithCache(rc cache.ReceiptCache) *Controller {
	c.receipts = rc
	return c
}

func (c *Controller) Mode() dispatch.Mode {
	return c.mode
}

func (c *Controller) Validate(cfg model.Configuration) error {
	return Validate(cfg, c.contentMax)
}

// Start sends once right away and then every cfg.Interval until Stop.
// It returns ErrAlreadyRunning instead of restarting a running automation.
func (c *Controller) Start(cfg model.Configuration) error {
	if err := c.Validate(cfg); err != nil {
		return err
	}
	cfg.Recipient = phone.Digits(cfg.Recipient)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return ErrAlreadyRunning
	}

	c.gen++
	s, err := scheduler.New(c.interval(cfg.Interval), c.tick(c.gen, cfg))
	if err != nil {
		return err
	}

	c.handle = s
	c.running = true
	c.cfg = &cfg
	observability.Running.Set(1)

	// The immediate tick runs on the scheduler goroutine and blocks on c.mu
	// until Start returns.
	s.Start()

	slog.Info("automation started",
		"mode", c.mode,
		"recipient", phone.Format(cfg.Recipient),
		"every", cfg.Interval.String(),
		"interval_ms", cfg.Interval.Milliseconds(),
	)
	c.notifyLocked()
	return nil
}

// Stop cancels the repeating send. Sends already in flight still finish and
// update their entries. It reports false when nothing was running.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return false
	}

	h := c.handle
	c.handle = nil
	c.running = false
	c.gen++
	sent := c.sentCount
	observability.Running.Set(0)
	c.notifyLocked()
	c.mu.Unlock()

	// Outside the lock: the scheduler waits for a tick that may need c.mu.
	h.Stop()

	slog.Info("automation stopped", "sent_total", sent)
	return true
}

// Wait blocks until every dispatched send has resolved its log entry.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Controller) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sentCount
}

// Logs returns the activity log, newest first.
func (c *Controller) Logs() []model.LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.list()
}

func (c *Controller) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe delivers a snapshot after every state change. Slow readers only
// see the latest one. The returned func unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan model.Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan model.Snapshot, 1)
	ch <- c.snapshotLocked()
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.subs, id)
			close(ch)
		})
	}
}

func (c *Controller) tick(gen uint64, cfg model.Configuration) func(context.Context) {
	return func(ctx context.Context) {
		c.sendOnce(ctx, gen, cfg)
	}
}

func (c *Controller) sendOnce(ctx context.Context, gen uint64, cfg model.Configuration) {
	c.mu.Lock()
	if !c.running || c.gen != gen {
		// Stop won the race with this tick.
		c.mu.Unlock()
		return
	}

	entry := model.LogEntry{
		ID:        c.newID(),
		Timestamp: c.now(),
		Status:    model.Pending,
		Message:   fmt.Sprintf("Sending to %s...", phone.Format(cfg.Recipient)),
	}
	c.log.prepend(entry)
	c.inflight.Add(1)
	c.notifyLocked()
	c.mu.Unlock()

	attempt := service.Attempt{
		EntryID:   entry.ID,
		Recipient: cfg.Recipient,
		Body:      cfg.Body,
	}

	// Sends overlap freely and outlive Stop, so they do not inherit the tick's cancellation.
	go func() {
		defer c.inflight.Done()
		c.sender.Send(context.WithoutCancel(ctx), attempt)
	}()
}

func (c *Controller) markSent(ctx context.Context, a service.Attempt, r model.Receipt) error {
	msg := fmt.Sprintf("Message sent to %s", phone.Format(a.Recipient))
	if r.Simulated {
		msg = "[SIM] " + msg
	}

	c.mu.Lock()
	c.sentCount++
	if !c.log.resolve(a.EntryID, model.Sent, msg) {
		slog.Debug("sent entry no longer pending", "entry_id", a.EntryID)
	}
	observability.SentMessages.Inc()
	c.notifyLocked()
	c.mu.Unlock()

	if c.receipts == nil {
		return nil
	}
	storeCtx, cancel := context.WithTimeout(ctx, receiptStoreTimeout)
	defer cancel()
	if err := c.receipts.StoreSent(storeCtx, a.EntryID, r); err != nil {
		return fmt.Errorf("store receipt: %w", err)
	}
	return nil
}

func (c *Controller) markFailed(ctx context.Context, a service.Attempt, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.log.resolve(a.EntryID, model.Error, "Failed: "+reason) {
		slog.Debug("failed entry no longer pending", "entry_id", a.EntryID)
	}
	c.notifyLocked()
	return nil
}

func (c *Controller) snapshotLocked() model.Snapshot {
	s := model.Snapshot{
		Running:   c.running,
		SentCount: c.sentCount,
		Mode:      string(c.mode),
		Logs:      c.log.list(),
	}
	if c.cfg != nil {
		cfg := *c.cfg
		s.Config = &cfg
	}
	return s
}

func (c *Controller) notifyLocked() {
	if len(c.subs) == 0 {
		return
	}
	s := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

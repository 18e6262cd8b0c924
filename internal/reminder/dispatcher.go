// Package reminder delivers reminders whose time has come.
package reminder

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/eleven-am/tasknest/internal/logger"
	"github.com/eleven-am/tasknest/internal/models"
	"github.com/eleven-am/tasknest/internal/orm"
	"github.com/eleven-am/tasknest/internal/store"
)

const (
	DefaultInterval   = 30 * time.Second
	DefaultBatchSize  = 50
	DefaultRetryDelay = 5 * time.Minute
)

// Notifier delivers one reminder. A returned error leaves the reminder
// unsent; it is retried once the dispatcher's retry delay has passed.
type Notifier interface {
	Notify(ctx context.Context, reminder models.Reminder) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, reminder models.Reminder) error

func (f NotifierFunc) Notify(ctx context.Context, reminder models.Reminder) error {
	return f(ctx, reminder)
}

// LogNotifier writes each reminder to a logger.
type LogNotifier struct {
	Log logger.Logger
}

func (n LogNotifier) Notify(_ context.Context, r models.Reminder) error {
	fields := map[string]interface{}{
		"reminder_id":   r.ID,
		"user_id":       r.UserID,
		"reminder_time": r.ReminderTime,
	}
	if r.TaskID != nil {
		fields["task_id"] = *r.TaskID
	}
	n.Log.WithFields(fields).Info(r.Title)
	return nil
}

// Dispatcher polls the store for due reminders, hands them to a Notifier
// and marks them sent. Several dispatchers can share a database; each
// batch is claimed with row locks that the others skip.
type Dispatcher struct {
	store      *store.Store
	notifier   Notifier
	interval   time.Duration
	batch      uint64
	retryDelay time.Duration
	log        logger.Logger

	mu      sync.Mutex
	backoff map[int64]time.Time
}

type Option func(*Dispatcher)

// WithInterval sets the time between passes. Intervals under a second run
// every second.
func WithInterval(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.interval = d
		}
	}
}

func WithBatchSize(n uint64) Option {
	return func(disp *Dispatcher) {
		if n > 0 {
			disp.batch = n
		}
	}
}

// WithRetryDelay sets how long a reminder whose delivery failed is left
// out of later passes.
func WithRetryDelay(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.retryDelay = d
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(disp *Dispatcher) {
		disp.log = log
	}
}

func NewDispatcher(s *store.Store, notifier Notifier, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:      s,
		notifier:   notifier,
		interval:   DefaultInterval,
		batch:      DefaultBatchSize,
		retryDelay: DefaultRetryDelay,
		log:        logger.Reminder(),
		backoff:    make(map[int64]time.Time),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run dispatches immediately and then every interval until ctx is done.
// A pass still running when the next one is due is skipped.
func (d *Dispatcher) Run(ctx context.Context) error {
	cronLog := cronLogger{log: d.log}
	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := c.AddFunc("@every "+d.interval.String(), func() { d.pass(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule reminder dispatch: %w", err)
	}

	d.log.Info("reminder dispatcher started", "interval", d.interval.String(), "batch", d.batch)
	d.pass(ctx)

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()

	d.log.Info("reminder dispatcher stopped")
	return nil
}

func (d *Dispatcher) pass(ctx context.Context) {
	_, err := d.DispatchOnce(ctx)
	switch {
	case err == nil, ctx.Err() != nil:
	case orm.IsRetryable(err):
		d.log.Warn("database unavailable, retrying next pass", "error", err)
	default:
		d.log.Error("dispatch failed", "error", err)
	}
}

// DispatchOnce delivers one batch of due reminders and returns how many
// were marked sent. Reminders whose delivery failed recently are left out
// so they cannot hold up the rest of the queue.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	now := d.store.Now()
	skip := d.deferred(now)

	sent := 0
	err := d.store.WithTransaction(ctx, func(tx *store.Store) error {
		pending, err := tx.PendingReminders(ctx, now, d.batch, skip...)
		if err != nil {
			return err
		}

		for _, r := range pending {
			if err := d.notifier.Notify(ctx, r); err != nil {
				d.log.Warn("notify failed", "reminder_id", r.ID, "retry_in", d.retryDelay.String(), "error", err)
				d.postpone(r.ID, now.Add(d.retryDelay))
				continue
			}
			d.forget(r.ID)

			ok, err := tx.MarkSent(ctx, r.ID)
			if err != nil {
				return err
			}
			if ok {
				sent++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if sent > 0 {
		d.log.Debug("reminders dispatched", "count", sent)
	}
	return sent, nil
}

// deferred returns the reminders still waiting out their retry delay,
// dropping those whose delay has passed.
func (d *Dispatcher) deferred(now time.Time) []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	var ids []int64
	for id, until := range d.backoff {
		if !until.After(now) {
			delete(d.backoff, id)
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (d *Dispatcher) postpone(id int64, until time.Time) {
	d.mu.Lock()
	d.backoff[id] = until
	d.mu.Unlock()
}

func (d *Dispatcher) forget(id int64) {
	d.mu.Lock()
	delete(d.backoff, id)
	d.mu.Unlock()
}

// cronLogger routes scheduler messages to the dispatcher's logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

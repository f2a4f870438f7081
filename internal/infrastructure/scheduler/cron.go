package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"SMMAgent/internal/ports"
)

// CronScheduler fires registered jobs on standard five-field cron expressions
// evaluated in a fixed time zone.
type CronScheduler struct {
	cron   *cron.Cron
	loc    *time.Location
	logger *slog.Logger

	mu      sync.Mutex
	ids     map[string]cron.EntryID
	running bool
	stopped context.Context
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for the given location (UTC when nil).
func NewCronScheduler(loc *time.Location, logger *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CronScheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		loc:    loc,
		logger: logger.With("component", "cron"),
		ids:    make(map[string]cron.EntryID),
	}
}

// Schedule registers job under id. An empty spec leaves the job manual-only.
func (c *CronScheduler) Schedule(id, spec string, job func(time.Time)) error {
	if job == nil {
		return fmt.Errorf("job %s has no body", id)
	}
	if spec == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, dup := c.ids[id]; dup {
		return fmt.Errorf("job %s already scheduled", id)
	}

	entry, err := c.cron.AddFunc(spec, func() { job(time.Now().In(c.loc)) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", id, spec, err)
	}
	c.ids[id] = entry
	return nil
}

// Next returns the next firing time of a scheduled job.
func (c *CronScheduler) Next(id string) (time.Time, bool) {
	c.mu.Lock()
	entryID, ok := c.ids[id]
	c.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}

	entry := c.cron.Entry(entryID)
	if !entry.Valid() {
		return time.Time{}, false
	}
	if entry.Next.IsZero() {
		return entry.Schedule.Next(time.Now().In(c.loc)), true
	}
	return entry.Next, true
}

// Start runs the cron loop in the background until Stop is called or ctx ends.
func (c *CronScheduler) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	jobs := len(c.ids)
	c.mu.Unlock()

	c.cron.Start()
	c.logger.Info("scheduler started", "jobs", jobs, "timezone", c.loc.String())

	go func() {
		<-ctx.Done()
		_ = c.Stop(context.Background())
	}()
	return nil
}

// Stop prevents new firings and waits for running jobs until ctx ends.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.running = false
		c.stopped = c.cron.Stop()
	}
	stopped := c.stopped
	c.mu.Unlock()

	if stopped == nil {
		return nil
	}
	select {
	case <-stopped.Done():
		c.logger.Debug("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running jobs: %w", ctx.Err())
	}
}

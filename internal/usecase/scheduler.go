package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"SMMAgent/internal/domain"
	"SMMAgent/internal/ports"
)

// Job outcomes as recorded in metrics.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomePanic = "panic"
)

// Job is a named unit of scheduled work.
type Job struct {
	ID   string
	Spec string
	// Run returns a short human summary of what was done.
	Run func(ctx context.Context) (string, error)
}

// JobReport is the single record produced for every job run.
type JobReport struct {
	Job     string
	Started time.Time
	Took    time.Duration
	Summary string
	Err     error
	Outcome string
}

// SchedulerDeps wires the cron driver with the error boundary's sinks.
type SchedulerDeps struct {
	Driver   ports.Scheduler
	Notifier ports.AdminNotifier
	Recorder ports.Recorder
	Logger   *slog.Logger
	// Observer, when set, receives every JobReport.
	Observer func(JobReport)
}

// Scheduler wires the cron-like driver with supervised jobs.
type Scheduler struct {
	driver   ports.Scheduler
	notifier ports.AdminNotifier
	recorder ports.Recorder
	logger   *slog.Logger
	observer func(JobReport)

	mu   sync.RWMutex
	jobs map[string]Job
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(deps SchedulerDeps) *Scheduler {
	s := &Scheduler{
		driver:   deps.Driver,
		notifier: deps.Notifier,
		recorder: deps.Recorder,
		logger:   deps.Logger,
		observer: deps.Observer,
		jobs:     map[string]Job{},
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Register adds a job; ids must be unique.
func (s *Scheduler) Register(job Job) error {
	if job.ID == "" || job.Run == nil {
		return fmt.Errorf("job needs an id and a body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.jobs[job.ID]; dup {
		return fmt.Errorf("job %s already registered", job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

// Jobs returns registered jobs sorted by id.
func (s *Scheduler) Jobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

// Start registers every job with the driver and starts it.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil {
		return fmt.Errorf("scheduler driver is not configured")
	}

	for _, job := range s.Jobs() {
		if job.Spec == "" {
			s.logger.Warn("job has no schedule, run it manually", "job", job.ID)
			continue
		}
		job := job
		if err := s.driver.Schedule(job.ID, job.Spec, func(time.Time) {
			s.supervise(ctx, job)
		}); err != nil {
			return fmt.Errorf("schedule %s: %w", job.ID, err)
		}
		s.logger.Info("job scheduled", "job", job.ID, "spec", job.Spec)
	}

	return s.driver.Start(ctx)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

// RunNow runs one job out of band under the same error boundary.
func (s *Scheduler) RunNow(ctx context.Context, id string) (JobReport, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return JobReport{}, fmt.Errorf("unknown job %q", id)
	}

	return s.supervise(ctx, job), nil
}

// supervise is the per-job error boundary: nothing a job does escapes it.
func (s *Scheduler) supervise(ctx context.Context, job Job) JobReport {
	report := JobReport{Job: job.ID, Started: time.Now(), Outcome: OutcomeOK}

	func() {
		defer func() {
			if r := recover(); r != nil {
				report.Err = fmt.Errorf("panic: %v", r)
				report.Outcome = OutcomePanic
			}
		}()
		report.Summary, report.Err = job.Run(ctx)
	}()

	report.Took = time.Since(report.Started)
	if report.Err != nil && report.Outcome == OutcomeOK {
		report.Outcome = OutcomeError
	}

	s.recorder.JobFinished(job.ID, report.Outcome, report.Took)

	if report.Err != nil {
		s.logger.Error("job failed", "job", job.ID, "outcome", report.Outcome, "took", report.Took, "error", report.Err)
		if s.notifier != nil {
			msg := fmt.Sprintf("⚠️ Job %s failed: %v", job.ID, report.Err)
			if err := s.notifier.Notify(ctx, msg); err != nil {
				s.logger.Warn("notify job failure", "job", job.ID, "error", err)
			}
		}
	} else {
		s.logger.Info("job finished", "job", job.ID, "took", report.Took, "summary", report.Summary)
	}

	if s.observer != nil {
		s.observer(report)
	}

	return report
}

type nopRecorder struct{}

func (nopRecorder) JobFinished(string, string, time.Duration)   {}
func (nopRecorder) PostTransition(domain.Status, domain.Status) {}
func (nopRecorder) Completion(string, string)                   {}

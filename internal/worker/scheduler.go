package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/spartanofurioso/platform/internal/config"
	"github.com/spartanofurioso/platform/internal/domain/subscription"
	"github.com/spartanofurioso/platform/internal/domain/trial"
	"github.com/spartanofurioso/platform/internal/pkg/logger"
	"github.com/spartanofurioso/platform/internal/pkg/metrics"
)

// Job names
const (
	JobTrialExpiry        = "trial_expiry"
	JobSubscriptionExpiry = "subscription_expiry"
	JobTrialReminders     = "trial_reminders"
)

const jobTimeout = 10 * time.Minute

type job struct {
	name     string
	schedule string
	run      func(ctx context.Context, now time.Time) (int, error)
}

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	jobs   map[string]job
	logger *logger.Logger
	now    func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// NewScheduler wires the trial and subscription jobs
func NewScheduler(trials trial.Service, subs subscription.Service, cfg config.TrialConfig, log *logger.Logger) *Scheduler {
	expiry := cfg.ExpirySchedule
	if expiry == "" {
		expiry = "@every 1h"
	}
	reminders := cfg.ReminderCron
	if reminders == "" {
		reminders = "0 9 * * *"
	}

	s := &Scheduler{
		jobs:   make(map[string]job),
		logger: log,
		now:    time.Now,
	}
	s.add(JobTrialExpiry, expiry, trials.ExpireDue)
	s.add(JobSubscriptionExpiry, expiry, func(ctx context.Context, now time.Time) (int, error) {
		n, err := subs.ExpireDue(ctx, now)
		return int(n), err
	})
	s.add(JobTrialReminders, reminders, trials.SendReminders)
	return s
}

func (s *Scheduler) add(name, schedule string, run func(ctx context.Context, now time.Time) (int, error)) {
	s.jobs[name] = job{name: name, schedule: schedule, run: run}
}

// Jobs returns the registered job names in order
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start registers every job with cron and starts it
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	c := cron.New()
	for _, name := range s.Jobs() {
		j := s.jobs[name]
		if _, err := c.AddFunc(j.schedule, func() { s.execute(context.Background(), j) }); err != nil {
			return fmt.Errorf("invalid schedule %q for job %s: %w", j.schedule, j.name, err)
		}
		s.logger.WithFields(map[string]interface{}{
			"job":      j.name,
			"schedule": j.schedule,
		}).Info("Job scheduled")
	}

	c.Start()
	s.cron = c
	s.running = true
	s.logger.Info("Job scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	done := s.cron.Stop()
	s.running = false
	s.mu.Unlock()

	select {
	case <-done.Done():
		s.logger.Info("Job scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stopped before running jobs finished")
	}
}

// IsRunning reports whether the scheduler is started
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow executes a job synchronously and returns how many items it processed
func (s *Scheduler) RunNow(ctx context.Context, name string) (int, error) {
	j, ok := s.jobs[name]
	if !ok {
		return 0, fmt.Errorf("unknown job %q", name)
	}
	return s.execute(ctx, j)
}

func (s *Scheduler) execute(ctx context.Context, j job) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := j.run(ctx, s.now())
	elapsed := time.Since(start)
	metrics.RecordJobRun(j.name, err, elapsed)

	log := s.logger.WithFields(map[string]interface{}{
		"job":         j.name,
		"processed":   n,
		"duration_ms": elapsed.Milliseconds(),
	})
	if err != nil {
		log.ErrorWithErr(err, "Scheduled job failed")
		return n, err
	}
	if n > 0 {
		log.Info("Scheduled job completed")
	} else {
		log.Debug("Scheduled job completed")
	}
	return n, nil
}

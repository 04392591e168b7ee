// Package scheduler runs the scrape trigger on an in-process cron schedule,
// alongside the externally called cron endpoint.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/service"
)

// Trigger is the job a Scheduler runs
type Trigger interface {
	TriggerScraping(ctx context.Context, trigger string) (service.TriggerResult, error)
}

// Scheduler owns the cron instance
type Scheduler struct {
	cron    *cron.Cron
	trigger Trigger
	spec    string
	timeout time.Duration

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// New creates a scheduler for a seconds-precision cron spec such as
// "0 */15 * * * *".
func New(trigger Trigger, spec string, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		trigger: trigger,
		spec:    spec,
		timeout: timeout,
	}
}

// Start registers the scrape job and starts the cron loop
func (s *Scheduler) Start() error {
	logger.Info("Starting cron scheduler", "schedule", s.spec)

	if _, err := s.cron.AddFunc(s.spec, s.runScrape); err != nil {
		logger.Error("Error scheduling scrape trigger", "error", err)
		return err
	}

	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
	return nil
}

// Stop waits for a running job, then shuts down the scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Cron scheduler stopped")
}

// RunNow triggers the scrape job immediately and returns its error.
func (s *Scheduler) RunNow() error {
	logger.Info("Manually triggering scrape job")
	s.runScrape()
	return s.LastError()
}

// LastRun reports when the job last ran
func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// LastError reports the outcome of the last run
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Scheduler) runScrape() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.trigger.TriggerScraping(ctx, "scheduled")

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()

	switch {
	case errors.Is(err, errs.ErrIngestionDisabled):
		logger.Info("Scheduled scrape skipped, ingestion disabled")
	case err != nil:
		logger.Error("Scheduled scrape trigger failed", "error", err)
	default:
		logger.Info("Scheduled scrape trigger finished", "message", res.Message, "targets", res.Targets)
	}
}

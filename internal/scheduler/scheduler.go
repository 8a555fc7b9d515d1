package scheduler

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler periodically requests a full sink reconciliation. The sink is a
// best-effort mirror, so a push lost to an outage (or a record ingested via
// the HTTP path, which does not trigger one) is healed on the next tick.
type Scheduler struct {
	scheduler *gocron.Scheduler
	trigger   func()
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a Scheduler that fires trigger every interval.
func New(interval time.Duration, trigger func(), logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		trigger:   trigger,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// A non-positive interval disables the job entirely.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("scheduler: periodic sink reconciliation disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.logger.Debug("scheduler: requesting sink reconciliation")
		s.trigger()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler: periodic sink reconciliation enabled", "interval", s.interval)
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

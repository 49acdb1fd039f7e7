package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/hefeng-humidity/internal/weather"
)

// Scheduler periodically builds the report for the configured city so the
// history cache is filled before anyone opens the page.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *weather.Service
	query     weather.Query
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(query weather.Query, interval time.Duration, service *weather.Service) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.Local),
		service:   service,
		query:     query,
		interval:  interval,
		timeout:   2 * time.Minute,
	}
}

// Start schedules the warm-up job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if s.query.City == "" || s.interval <= 0 {
		slog.Info("scheduler: no city or interval configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.Run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Run executes one warm-up pass.
func (s *Scheduler) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	slog.Info("scheduler: warming history cache", "city", s.query.City)
	result, err := s.service.BuildReport(ctx, s.query)
	if err != nil {
		slog.Warn("scheduler: warm-up failed", "city", s.query.City, "error", err)
		return
	}
	slog.Info("scheduler: warm-up completed", "city", result.City.Name, "days", len(result.Report.Total))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

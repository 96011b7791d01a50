package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Ingester is the part of the ingestion gateway the scheduler drives.
type Ingester interface {
	IngestAll(ctx context.Context, regions []string) int
}

// Scheduler periodically ingests air-quality readings for tracked regions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	ingester  Ingester
	regions   []string
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler. An interval of zero disables it.
func New(regions []string, interval time.Duration, ingester Ingester, logger *slog.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		ingester:  ingester,
		regions:   regions,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("scheduler disabled")
		return nil
	}
	if len(s.regions) == 0 {
		s.logger.Info("scheduler: no regions configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "interval", s.interval, "regions", len(s.regions))
	return nil
}

func (s *Scheduler) run() {
	start := time.Now()
	s.logger.Info("scheduler: running ingestion job")

	// Regions are ingested one after another; the job budget covers the
	// worst case of both providers timing out for every region.
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(len(s.regions))*2*time.Minute)
	defer cancel()

	ok := s.ingester.IngestAll(ctx, s.regions)
	s.logger.Info("scheduler: completed ingestion job", "ingested", ok, "regions", len(s.regions), "took", time.Since(start))
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

package scheduler

import (
	"ChatSyncAPI/internal/config"
	"ChatSyncAPI/internal/scheduler/job"
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const jobTimeout = 10 * time.Minute

type Scheduler struct {
	cfg       *config.AppConfig
	cron      *cron.Cron
	readState job.ReadStateCleaner
}

func New(cfg *config.AppConfig, readState job.ReadStateCleaner) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		cron:      cron.New(),
		readState: readState,
	}
}

func (s *Scheduler) Start() error {
	slog.Info("Starting Scheduler...")

	if err := s.registerJobs(); err != nil {
		return err
	}

	s.cron.Start()
	slog.Info("Scheduler started successfully")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) registerJobs() error {
	_, err := s.cron.AddFunc(s.cfg.ReadStateCleanupCron, func() {
		slog.Info("Starting Read State Cleanup Job")
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := job.RunReadStateCleanup(ctx, s.readState); err != nil {
			slog.Error("Read State Cleanup Job failed", "error", err)
		} else {
			slog.Info("Read State Cleanup Job completed")
		}
	})
	if err != nil {
		slog.Error("Failed to register Read State Cleanup job", "error", err, "schedule", s.cfg.ReadStateCleanupCron)
		return err
	}

	slog.Info("Registered Read State Cleanup Job", "schedule", s.cfg.ReadStateCleanupCron)
	return nil
}

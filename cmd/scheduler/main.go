package main

import (
	"ChatSyncAPI/internal/config"
	"ChatSyncAPI/internal/repository"
	"ChatSyncAPI/internal/scheduler"
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.LoadAppConfig()

	// Schema changes belong to the API process.
	cfg.DBMigrate = false

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	drv := config.InitDatabase(cfg)
	defer func() {
		if err := drv.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
		}
	}()

	cleanup := scheduler.New(cfg, repository.NewReadStateRepository(drv))
	if err := cleanup.Start(); err != nil {
		slog.Error("Failed to start read state cleanup", "error", err, "cron", cfg.ReadStateCleanupCron)
		os.Exit(1)
	}

	slog.Info("Scheduler running", "cron", cfg.ReadStateCleanupCron)
	<-ctx.Done()

	slog.Info("Shutting down scheduler")
	cleanup.Stop()
}

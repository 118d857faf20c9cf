package main

import (
	"ChatSyncAPI/internal/adapter"
	"ChatSyncAPI/internal/bootstrap"
	"ChatSyncAPI/internal/config"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.LoadAppConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	drv := config.InitDatabase(cfg)
	defer func() {
		if err := drv.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
		}
	}()

	redisAdapter, err := adapter.NewRedisAdapter(ctx, cfg)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisAdapter.Close()

	s3Client, err := config.NewS3Client(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize S3 client, avatar keys will not be resolved", "error", err)
	}
	validate := config.NewValidator()
	chiMux := config.NewChi(cfg)

	app, err := bootstrap.Init(ctx, cfg, drv, redisAdapter, validate, s3Client, chiMux)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	go app.Hub.Run()

	// A relay failure shuts the process down.
	relayDone := make(chan struct{})
	var relayErr error
	go func() {
		defer close(relayDone)
		if err := app.Relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Realtime relay stopped", "error", err)
			relayErr = err
			stop()
		}
	}()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.AppPort),
		Handler: chiMux,
	}

	go func() {
		slog.Info("Starting ChatSyncAPI", "port", cfg.AppPort, "realtime", cfg.RealtimeDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	select {
	case <-relayDone:
	case <-shutdownCtx.Done():
		slog.Warn("Realtime relay did not stop in time")
	}

	app.Close()
	slog.Info("Server exited")

	select {
	case <-relayDone:
		if relayErr != nil {
			os.Exit(1)
		}
	default:
	}
}

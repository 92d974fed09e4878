package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendly/cmd/sweeper/jobs"
	"attendly/internal/config"
	"attendly/internal/database"
	"attendly/internal/logger"
	"attendly/internal/messaging"
	"attendly/internal/metrics"
	"attendly/internal/repository"
	"attendly/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	logger.Get().Info("Starting sweeper service...")

	// Separate NATS client id so the API and the sweeper can run side by side
	cfg.NATS.ClientID = "attendly-sweeper"

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}

	m := metrics.New()
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, natsClient, nil, m, service.Policy{
		FeedbackRequireAttendance: cfg.FeedbackRequireAttendance,
	})

	window := time.Duration(cfg.SweepHoursAhead) * time.Hour
	job := jobs.NewWaitlistSweepJob(services.Sweep, cfg.SweepInterval, window)

	ctx, cancel := context.WithCancel(context.Background())
	job.Start(ctx)

	logger.Get().Info("Sweeper service started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Get().Info("Shutting down sweeper service...")

	job.Stop()
	cancel()

	if err := natsClient.Close(); err != nil {
		logger.Get().Error("Error closing NATS connection", "error", err)
	}
	if err := db.Close(); err != nil {
		logger.Get().Error("Error closing database connection", "error", err)
	}

	logger.Get().Info("Sweeper service stopped")
}

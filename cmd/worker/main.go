package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/unclebandit/talentreach-backend/internal/app"
	"github.com/unclebandit/talentreach-backend/internal/config"
	"github.com/unclebandit/talentreach-backend/internal/logger"
	"github.com/unclebandit/talentreach-backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	if cfg.AMQPURL == "" {
		logger.L.Error("AMQP_URL is required for the standalone worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, service.LogSender{Logger: logger.L}); err != nil {
		logger.L.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

// run consumes outreach deliveries until ctx is done.
func run(ctx context.Context, cfg config.Config, sender service.Sender) error {
	a, err := app.New(ctx, cfg, logger.L)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.StartWorker(ctx, sender); err != nil {
		return err
	}

	logger.L.Info("Worker running, waiting for messages...", "queue", cfg.OutreachQueue)
	<-ctx.Done()
	return nil
}

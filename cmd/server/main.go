// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unclebandit/talentreach-backend/internal/app"
	"github.com/unclebandit/talentreach-backend/internal/config"
	"github.com/unclebandit/talentreach-backend/internal/controller"
	"github.com/unclebandit/talentreach-backend/internal/handler"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger.L)
	if err != nil {
		logger.L.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// Without a broker the deliveries are handled in this process.
	if cfg.AMQPURL == "" {
		if err := a.StartWorker(ctx, service.LogSender{Logger: logger.L}); err != nil {
			logger.L.Error("starting in-process worker", "error", err)
			os.Exit(1)
		}
	}

	api := &controller.API{
		Campaigns:     &controller.CampaignController{CampaignService: a.Campaigns},
		CampaignViews: handler.NewCampaignHandler(a.Campaigns),
		Runs:          &controller.RunController{RunService: a.Runs, WatchContext: ctx},
		Contacts:      &controller.ContactController{ContactService: a.Contacts},
		Leads:         &controller.LeadController{LeadService: a.Leads},
		Outreach:      &controller.OutreachController{Dispatcher: a.Dispatcher},
		Metrics:       a.Metrics.Handler(),
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.L.Info("🚀 Server running", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.L.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.L.Warn("graceful shutdown failed", "error", err)
	}
}

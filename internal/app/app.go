// Package app assembles stores, transports and services from Config.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	r "github.com/redis/go-redis/v9"

	"github.com/unclebandit/talentreach-backend/internal/config"
	"github.com/unclebandit/talentreach-backend/internal/db"
	"github.com/unclebandit/talentreach-backend/internal/lock"
	"github.com/unclebandit/talentreach-backend/internal/logger"
	"github.com/unclebandit/talentreach-backend/internal/metrics"
	"github.com/unclebandit/talentreach-backend/internal/phantom"
	"github.com/unclebandit/talentreach-backend/internal/queue"
	"github.com/unclebandit/talentreach-backend/internal/repository"
	"github.com/unclebandit/talentreach-backend/internal/service"
)

// App holds the wired dependencies of one process.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	DB      *sql.DB
	Redis   *r.Client
	Store   *repository.Store
	Gateway repository.ContactStoreGateway
	Locker  lock.Locker
	Queue   queue.Queue
	Metrics *metrics.Metrics

	Campaigns  *service.CampaignService
	Runs       *service.RunService
	Contacts   *service.ContactService
	Leads      *service.LeadService
	Dispatcher *service.Dispatcher
}

// New connects to the configured backends. Postgres is migrated first when
// AutoMigrate is set. Without AMQP_URL the queue is in-process; without
// REDIS_ADDR the launch lock is in-process.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	log = logger.Or(log)
	a := &App{Config: cfg, Logger: log, Metrics: metrics.New()}

	switch cfg.StoreDriver {
	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on exit")
		a.Store = repository.NewMemoryStore().Store()
	default:
		if cfg.AutoMigrate {
			if err := db.Migrate(log, cfg.DSN(), "up"); err != nil {
				return nil, err
			}
		}
		conn, err := db.Open(ctx, cfg.DSN())
		if err != nil {
			return nil, err
		}
		a.DB = conn
		a.Store = repository.NewPostgresStore(conn)
	}
	a.Gateway = a.Store.Gateway()

	if cfg.RedisAddr != "" {
		a.Redis = r.NewClient(&r.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
		}
		a.Locker = lock.NewRedisLocker(a.Redis)
	} else {
		a.Locker = lock.NewMemoryLocker()
	}

	if cfg.AMQPURL != "" {
		q, err := queue.DialAMQP(cfg.AMQPURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		q.Logger = log
		a.Queue = q
	} else {
		q := queue.NewInMemoryQueue()
		q.Logger = log
		a.Queue = q
	}

	a.wireServices()
	return a, nil
}

func (a *App) wireServices() {
	s, log, cfg := a.Store, a.Logger, a.Config

	a.Campaigns = &service.CampaignService{CampaignRepo: s.Campaigns, LinkRepo: s.Links, RunRepo: s.Runs, Logger: log}
	a.Contacts = &service.ContactService{ContactRepo: s.Contacts, LinkRepo: s.Links, MessageRepo: s.Messages, Logger: log}
	a.Leads = &service.LeadService{LeadRepo: s.Leads, ContactRepo: s.Contacts, Logger: log}
	a.Runs = &service.RunService{
		Campaigns:     s.Campaigns,
		Runs:          s.Runs,
		Store:         a.Gateway,
		Jobs:          phantom.New(cfg.PhantomBaseURL),
		Locker:        a.Locker,
		Metrics:       a.Metrics,
		Logger:        log,
		MaxDuration:   cfg.PhantomMaxDuration,
		PollInterval:  cfg.PollInterval,
		MaxPollErrors: cfg.MaxPollErrors,
		LockTTL:       cfg.LaunchLockTTL,
	}
	a.Dispatcher = &service.Dispatcher{
		Campaigns: s.Campaigns,
		Store:     a.Gateway,
		Queue:     a.Queue,
		Topic:     cfg.OutreachQueue,
		Workers:   cfg.OutreachWorkers,
		Metrics:   a.Metrics,
		Logger:    log,
	}
}

// Worker returns a delivery worker that writes link status through the
// gateway and hands messages to sender.
func (a *App) Worker(sender service.Sender) *service.Worker {
	w := service.NewWorker(a.Gateway, sender)
	w.Metrics = a.Metrics
	w.Logger = a.Logger
	return w
}

// StartWorker subscribes a worker to the outreach topic until ctx is done.
func (a *App) StartWorker(ctx context.Context, sender service.Sender) error {
	return a.Queue.Subscribe(ctx, a.Config.OutreachQueue, a.Worker(sender).Handle)
}

// Close waits for background watches, drains the queue and releases
// connections.
func (a *App) Close() {
	if a.Runs != nil {
		a.Runs.Wait()
	}
	if a.Queue != nil {
		if err := a.Queue.Close(); err != nil {
			a.Logger.Warn("closing queue", "error", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("closing redis", "error", err)
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("closing database", "error", err)
		}
	}
}

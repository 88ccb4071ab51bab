// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBName      string `env:"DB_NAME"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	PhantomBaseURL     string        `env:"PHANTOMBUSTER_BASE_URL" envDefault:"https://api.phantombuster.com/api/v2"`
	PhantomMaxDuration int           `env:"PHANTOMBUSTER_MAX_DURATION_SEC" envDefault:"600"`
	PollInterval       time.Duration `env:"RUN_POLL_INTERVAL" envDefault:"5s"`
	MaxPollErrors      int           `env:"RUN_MAX_POLL_ERRORS" envDefault:"5"`

	AMQPURL       string `env:"AMQP_URL"`
	OutreachQueue string `env:"OUTREACH_QUEUE" envDefault:"outreach_sends"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	LaunchLockTTL time.Duration `env:"LAUNCH_LOCK_TTL" envDefault:"30s"`

	OutreachWorkers int `env:"OUTREACH_WORKERS" envDefault:"1"`
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DSN() == "" {
			return fmt.Errorf("DATABASE_URL or DB_USER/DB_NAME required for postgres store")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("RUN_POLL_INTERVAL must be positive")
	}
	if c.OutreachWorkers < 1 {
		return fmt.Errorf("OUTREACH_WORKERS must be at least 1")
	}
	return nil
}

// DSN prefers DATABASE_URL and otherwise assembles one from the DB_* parts.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	if c.DBUser == "" || c.DBName == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

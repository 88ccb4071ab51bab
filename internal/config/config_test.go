package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 600, cfg.PhantomMaxDuration)
	assert.Equal(t, "outreach_sends", cfg.OutreachQueue)
	assert.Equal(t, 1, cfg.OutreachWorkers)
	assert.True(t, cfg.AutoMigrate)
}

func TestDSNFromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_USER", "crm")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "talentreach")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "postgres://crm:secret@db:5432/talentreach?sslmode=disable", cfg.DSN())
}

func TestPostgresRequiresDSN(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "")

	_, err := Parse()
	assert.Error(t, err)
}

func TestUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Parse()
	assert.ErrorContains(t, err, "mongo")
}

//cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/unclebandit/talentreach-backend/internal/config"
	"github.com/unclebandit/talentreach-backend/internal/db"
	"github.com/unclebandit/talentreach-backend/internal/logger"
)

var seedFiles = []string{
	"seed/campaigns.sql",
	"seed/contacts.sql",
	"seed/leads.sql",
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	if err := db.Migrate(logger.L, cfg.DSN(), "up"); err != nil {
		logger.L.Error("migration failed", "error", err)
		os.Exit(1)
	}
	conn, err := db.Open(ctx, cfg.DSN())
	if err != nil {
		logger.L.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			logger.L.Error("failed to read seed file", "file", file, "error", err)
			os.Exit(1)
		}

		if _, err := conn.ExecContext(ctx, string(content)); err != nil {
			logger.L.Error("failed to execute seed file", "file", file, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Seeded: %s\n", file)
	}

	fmt.Println("Database seeding completed successfully!")
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unclebandit/talentreach-backend/internal/config"
	"github.com/unclebandit/talentreach-backend/internal/db"
	"github.com/unclebandit/talentreach-backend/internal/logger"
)

func newMigrateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate up|down|version",
		Short:     "Apply, roll back or inspect database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.cfg.StoreDriver != config.DriverPostgres {
				return fmt.Errorf("migrate requires STORE_DRIVER=%s", config.DriverPostgres)
			}
			return db.Migrate(logger.L, s.cfg.DSN(), args[0])
		},
	}
}

// Package cli implements recruitctl, the operator command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/unclebandit/talentreach-backend/internal/app"
	"github.com/unclebandit/talentreach-backend/internal/config"
	"github.com/unclebandit/talentreach-backend/internal/logger"
)

// session carries the configuration loaded once per invocation.
type session struct {
	cfg config.Config
}

func (s *session) app(cmd *cobra.Command) (*app.App, error) {
	return app.New(cmd.Context(), s.cfg, logger.L)
}

func NewRootCmd(version string) *cobra.Command {
	s := &session{}

	cmd := &cobra.Command{
		Use:          "recruitctl",
		Short:        "Operate campaigns, scraping runs and migrations",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.Init(cfg.LogLevel, cfg.LogFormat)
			s.cfg = cfg
			return nil
		},
	}

	cmd.AddCommand(newMigrateCmd(s))
	cmd.AddCommand(newCampaignCmd(s))
	cmd.AddCommand(newRunCmd(s))

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

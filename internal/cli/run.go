package cli

import (
	"github.com/spf13/cobra"
)

func newRunCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scraping run operations",
	}
	cmd.AddCommand(newRunPollCmd(s))
	cmd.AddCommand(newRunWatchCmd(s))
	return cmd
}

func newRunPollCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "poll <run-id>",
		Short: "Check a run's status once and ingest its output if it finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			run, err := a.Runs.PollOnce(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), run)
		},
	}
}

func newRunWatchCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <run-id>",
		Short: "Poll a run until it reaches a terminal status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			run, err := a.Runs.Watch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), run)
		},
	}
}

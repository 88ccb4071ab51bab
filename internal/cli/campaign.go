package cli

import (
	"github.com/spf13/cobra"
)

func newCampaignCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Campaign operations",
	}
	cmd.AddCommand(newCampaignLaunchCmd(s))
	return cmd
}

func newCampaignLaunchCmd(s *session) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "launch <campaign-id>",
		Short: "Launch the campaign's scraping agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			run, err := a.Runs.Launch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if watch {
				if run, err = a.Runs.Watch(cmd.Context(), run.ID); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), run)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Poll until the run reaches a terminal status")
	return cmd
}

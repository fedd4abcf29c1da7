package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/bathlog/internal/adapters/mq/worker"
)

func newSyncCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Merge the widget queue into the event list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			syncer, err := worker.NewSyncer(s.svc, worker.WithName("bathlogctl-sync"))
			if err != nil {
				return err
			}
			res, err := syncer.RunNow(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: promoted %d, %d events stored\n", res.Outcome, res.Promoted, len(res.Events))
			return nil
		},
	}
}

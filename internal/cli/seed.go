package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/bathlog/internal/domain/seed"
)

func newSeedCommand(s *session) *cobra.Command {
	var mode string
	var days int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the store with a realistic demo history",
		Long: `Generate about three months of demo events.

Examples:
  bathlogctl seed
  bathlogctl seed --mode append --days 30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := seed.ParseMode(mode)
			if err != nil {
				return err
			}
			cfg := seed.DefaultConfig().ForDays(days)
			n, err := s.svc.Seed(cmd.Context(), m, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d events (%s)\n", n, m)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(seed.ModeReplace), "append to or replace the existing events")
	cmd.Flags().IntVar(&days, "days", 0, "days of history to generate (default 90)")
	return cmd
}

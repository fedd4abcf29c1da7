package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/bathlog/internal/domain/model"
)

func newWidgetCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "widget",
		Short: "Act as the home screen widget",
	}

	var typ string
	add := &cobra.Command{
		Use:   "add",
		Short: "Queue a widget tap",
		Long: `Append a tap to the widget queue file. It reaches the event list on the
next sync.

Examples:
  bathlogctl widget add --type pee`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := model.ParseEventType(typ)
			if err != nil {
				return err
			}
			e, err := s.svc.QueueWidgetEvent(cmd.Context(), t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s %s\n", e.ID, e.Type)
			return nil
		},
	}
	add.Flags().StringVar(&typ, "type", "", "event type: pee or poop (required)")
	_ = add.MarkFlagRequired("type")

	cmd.AddCommand(add)
	return cmd
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newBackupCommand(s *session) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Write a compressed snapshot of the event list",
		Long: `Write every stored event as zstd-compressed JSON lines.

Examples:
  bathlogctl backup --out events.jsonl.zst`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create backup: %w", err)
			}
			n, err := s.svc.Backup(cmd.Context(), f)
			if cerr := f.Close(); err == nil && cerr != nil {
				err = fmt.Errorf("close backup: %w", cerr)
			}
			if err != nil {
				_ = os.Remove(out)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backed up %d events to %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "snapshot file to write (required)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newRestoreCommand(s *session) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Replace the event list with a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("open snapshot: %w", err)
			}
			defer f.Close()

			n, err := s.svc.Restore(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %d events from %s\n", n, in)
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "snapshot file to read (required)")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

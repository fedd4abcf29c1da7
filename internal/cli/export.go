package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/bathlog/internal/domain/export"
	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/internal/domain/types"
)

func newExportCommand(s *session) *cobra.Command {
	var format, rangeName, typeName, timeFormat, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export events as text, CSV or XLSX",
		Long: `Export the events of a range.

Examples:
  bathlogctl export --range month
  bathlogctl export --format xlsx --range year --out year.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			r, err := model.ParseRange(rangeName)
			if err != nil {
				return err
			}
			tf, err := model.ParseTypeFilter(typeName)
			if err != nil {
				return err
			}
			req := types.ExportRequest{Format: f, Range: r, Type: tf}
			if timeFormat != "" {
				if req.TimeFormat, err = export.ParseTimeFormat(timeFormat); err != nil {
					return err
				}
			}

			var buf bytes.Buffer
			if err := s.svc.Export(cmd.Context(), &buf, req); err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil { //nolint:gosec // exports are meant to be shared
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s export to %s\n", f, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(export.FormatCSV), "csv, text or xlsx")
	cmd.Flags().StringVar(&rangeName, "range", string(model.RangeAll), "today, week, month, year or all")
	cmd.Flags().StringVar(&typeName, "type", string(model.FilterAll), "all, pee or poop")
	cmd.Flags().StringVar(&timeFormat, "time-format", "", "24h or 12h (default from config)")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	return cmd
}

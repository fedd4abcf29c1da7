package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/okian/bathlog/internal/domain/aggregate"
	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/internal/domain/types"
)

const barWidth = 32

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)

	seriesStyles = map[model.EventType]lipgloss.Style{
		model.Pee:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F7DC6F")),
		model.Poop: lipgloss.NewStyle().Foreground(lipgloss.Color("#A0522D")),
	}
)

func newStatsCommand(s *session) *cobra.Command {
	var rangeName, typeName string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show counts and a bar chart for a range",
		Long: `Print the summary counts and one bar per bucket.

Examples:
  bathlogctl stats
  bathlogctl stats --range week --type pee`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := model.ParseRange(rangeName)
			if err != nil {
				return err
			}
			tf, err := model.ParseTypeFilter(typeName)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			page, err := s.svc.ListEvents(ctx, types.ListQuery{Range: r, Type: tf, Limit: 1})
			if err != nil {
				return err
			}
			chart, err := s.svc.Chart(ctx, r, tf, nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStats(chart, page.Counts))
			return nil
		},
	}
	cmd.Flags().StringVar(&rangeName, "range", string(model.RangeWeek), "today, week, month, year or all")
	cmd.Flags().StringVar(&typeName, "type", string(model.FilterAll), "all, pee or poop")
	return cmd
}

// renderStats draws the summary box and one bar row per bucket and series.
// Bars are scaled to the largest bucket.
func renderStats(chart aggregate.Chart, counts types.RangeCounts) string {
	title := titleStyle.Render("bathlog · " + chart.Range.Label())
	summary := boxStyle.Render(fmt.Sprintf("%s %d   %s %d   %s %d",
		labelStyle.Render("total"), counts.Total,
		labelStyle.Render(model.Pee.Label()), counts.Pee,
		labelStyle.Render(model.Poop.Label()), counts.Poop,
	))
	if chart.Totals.Sum() == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, summary, labelStyle.Render("no events in range"))
	}

	labelWidth := 0
	for _, l := range chart.Buckets.Labels {
		labelWidth = max(labelWidth, lipgloss.Width(l))
	}

	var rows []string
	for i, l := range chart.Buckets.Labels {
		for _, series := range chart.Series {
			n := 0
			if i < len(series.Counts) {
				n = series.Counts[i]
			}
			rows = append(rows, fmt.Sprintf("%s %s %s %d",
				labelStyle.Width(labelWidth).Render(l),
				series.Type.Icon(),
				seriesStyles[series.Type].Render(bar(n, chart.MaxValue)),
				n,
			))
			// Only the first series row carries the bucket label.
			l = ""
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, summary, strings.Join(rows, "\n"))
}

func bar(n, maxValue int) string {
	if n <= 0 || maxValue <= 0 {
		return ""
	}
	w := max(n*barWidth/maxValue, 1)
	return strings.Repeat("█", w)
}

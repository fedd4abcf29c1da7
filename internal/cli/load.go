package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/bathlog/internal/testevents"
)

func newLoadCommand(s *session) *cobra.Command {
	var (
		baseURL string
		cfg     = testevents.Config{
			NumEvents:   testevents.DefaultNumEvents,
			WidgetTaps:  testevents.DefaultWidgetTaps,
			Days:        testevents.DefaultDays,
			Timeout:     testevents.DefaultTimeout,
			TapInterval: testevents.DefaultTapInterval,
		}
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Drive a running server with generated events and widget taps",
		Long: `load posts generated events and widget taps to a running bathlog
server, triggers a sync, and checks that the stored count grew by exactly
what was accepted. The server address defaults to the configured addr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.BaseURL = baseURL
			if cfg.BaseURL == "" {
				cfg.BaseURL = urlFromAddr(s.cfg.Addr)
			}
			stats, err := testevents.Run(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged %d/%d events, queued %d taps (%d debounced), stored %d -> %d in %s\n",
				stats.EventsSuccessful, stats.EventsGenerated, stats.TapsQueued, stats.TapsDebounced,
				stats.StoredBefore, stats.StoredAfter, stats.Duration.Round(1e6))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&baseURL, "url", "", "server base URL (default derived from addr)")
	f.IntVar(&cfg.NumEvents, "events", cfg.NumEvents, "events to post to /events")
	f.IntVar(&cfg.WidgetTaps, "taps", cfg.WidgetTaps, "widget taps to post to /widget/events")
	f.IntVar(&cfg.Workers, "workers", 4, "concurrent submitters")
	f.IntVar(&cfg.Days, "days", cfg.Days, "spread generated timestamps over this many days")
	f.Int64Var(&cfg.Seed, "seed", 0, "generator seed (0 picks one from the clock)")
	f.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per request timeout")
	f.DurationVar(&cfg.TapInterval, "tap-interval", cfg.TapInterval, "gap between widget taps")
	f.StringVar(&cfg.OutputFile, "output", "", "write the generated events to this JSON file")
	f.BoolVar(&cfg.Verbose, "verbose", false, "log submission progress")
	return cmd
}

// urlFromAddr turns a listen address such as ":9080" into a client URL.
func urlFromAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

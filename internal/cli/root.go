// Package cli implements the bathlogctl operator commands. Every command
// works directly on the files named by the shared config, so it can run
// while the server is stopped.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/bathlog/internal/app"
	"github.com/okian/bathlog/internal/config"
	"github.com/okian/bathlog/pkg/logger"
)

// session holds what PersistentPreRunE prepared for a command.
type session struct {
	configPath string
	cfg        *config.Config
	svc        *service.Service
}

// NewRootCommand builds the bathlogctl command tree.
func NewRootCommand() *cobra.Command {
	s := &session{}
	root := &cobra.Command{
		Use:   "bathlogctl",
		Short: "bathlogctl - manage a local bathlog event store",
		Long: `bathlogctl seeds, inspects, exports and backs up the event list
used by the bathlog server, and can queue widget taps for testing.

Configuration is read the same way as the server: defaults, then the YAML
file named by --config or BATHLOG_CONFIG, then BATHLOG_* env vars.`,
		SilenceUsage:      true,
		PersistentPreRunE: s.setup,
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if s.svc != nil {
				s.svc.Stop()
			}
		},
	}
	root.PersistentFlags().StringVar(&s.configPath, "config", "", "YAML config file (overrides BATHLOG_CONFIG)")

	root.AddCommand(
		newSeedCommand(s),
		newSyncCommand(s),
		newStatsCommand(s),
		newExportCommand(s),
		newBackupCommand(s),
		newRestoreCommand(s),
		newWidgetCommand(s),
		newLoadCommand(s),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (s *session) setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	var opts []config.LoadOption
	if s.configPath != "" {
		opts = append(opts, config.WithFile(s.configPath))
	}
	cfg, err := config.Load(ctx, opts...)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	svc, err := service.FromConfig(cfg, service.WithLogger(logger.Named("bathlogctl")))
	if err != nil {
		return err
	}
	s.cfg = cfg
	s.svc = svc
	return nil
}

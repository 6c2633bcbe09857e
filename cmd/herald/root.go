// Package main provides the CLI entrypoint for herald.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/herald-notify/herald/internal/audit"
	"github.com/herald-notify/herald/internal/config"
	"github.com/herald-notify/herald/internal/queue"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
	}
	logger   *slog.Logger
	closeLog func()

	// spool is the global playback queue instance
	spool *queue.Spool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "herald",
	Short: "Spoken notifications for CLI lifecycle events",
	Long: `herald announces lifecycle events of a host tool through a chain of
speech backends with automatic fallback.

Hook invocations call 'herald notify' with an event payload on stdin;
playback happens asynchronously through a durable queue drained by the
heraldd consumer, so the calling process never waits on audio.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		// A malformed chain or skip list is fatal before any dispatch
		// side effects.
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		setupLogger()

		if err := config.EnsureStateDir(); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}

		spool, err = queue.NewSpool(config.QueuePath(), logger)
		if err != nil {
			return fmt.Errorf("failed to open spool: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			closeLog()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/herald/config.toml)")
}

// setupLogger configures the global slog logger: stderr plus the
// append-only audit trail.
func setupLogger() {
	level := audit.ParseLevel(cfg.Log.Level)
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	logger, closeLog = audit.NewLogger(level, config.EventLogPath())
	slog.SetDefault(logger)
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "callisto",
	Short: "Callisto - resilient forwarding gateway for a local HTTP service",
	Long: `Callisto puts a single gateway in front of a local HTTP service so it can
be reached through a public tunnel.

It binds the first free port in a range, probes the upstream on a fixed
interval, rejects health-gated routes while the upstream is down, forwards
everything else with per-route timeouts, and streams responses back.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (built-in defaults when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration named by --config with environment
// overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	return cfg, nil
}

// newLogger builds the process logger from the telemetry settings.
// --verbose forces debug level.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	lc := cfg.Telemetry.Logging
	level := lc.Level
	if verbose {
		level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:         level,
		Format:        lc.Format,
		AddSource:     lc.AddSource,
		RedactSecrets: lc.RedactSecrets,
		Writer:        os.Stderr,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return logger, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/supervisor"
)

var runFlags struct {
	portRange      string
	upstream       string
	logLevel       string
	waitForHealthy time.Duration
	dryRun         bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Callisto gateway",
	Long: `Start the gateway with the specified configuration.

The gateway binds the first free port in the configured range, starts
probing the upstream, and forwards requests until interrupted. On SIGINT or
SIGTERM it stops accepting connections and lets in-flight requests finish.

Examples:
  # Start with defaults (ports 8080-8089, upstream http://127.0.0.1:11434)
  callisto run

  # Start with a custom config
  callisto run --config /etc/callisto/config.yaml

  # Override the port range and upstream
  callisto run --port-range 9000-9009 --upstream http://127.0.0.1:8000

  # Validate config without starting the gateway
  callisto run --dry-run`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.portRange, "port-range", "p", "", "override port range, e.g. 8080-8089 or 8080")
	runCmd.Flags().StringVarP(&runFlags.upstream, "upstream", "u", "", "override upstream URL")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().DurationVar(&runFlags.waitForHealthy, "wait-for-healthy", 0, "wait up to this long for a healthy upstream before serving")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the gateway")
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyRunOverrides(cfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	printBanner(out, cfg)

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	s := supervisor.New(cfg,
		supervisor.WithLogger(logger),
		supervisor.WithBuildInfo(buildInfo()),
	)

	go func() {
		select {
		case <-s.Ready():
			addr := s.Addr()
			fmt.Fprintln(out)
			fmt.Fprintf(out, "✓ Gateway listening on %s\n", addr)
			if cfg.Telemetry.Metrics.Enabled {
				fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", addr, cfg.Telemetry.Metrics.Path)
			}
			fmt.Fprintln(out, "\nPress Ctrl+C to stop")
		case <-ctx.Done():
		}
	}()

	if err := s.Run(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Gateway stopped")
	return nil
}

// applyRunOverrides applies run flags on top of the loaded configuration
// and validates the result.
func applyRunOverrides(cfg *config.Config) error {
	if runFlags.portRange != "" {
		start, end, err := parsePortRange(runFlags.portRange)
		if err != nil {
			return cli.NewConfigError("--port-range", err.Error())
		}
		cfg.Gateway.PortRangeStart = start
		cfg.Gateway.PortRangeEnd = end
	}
	if runFlags.upstream != "" {
		cfg.Upstream.URL = runFlags.upstream
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if runFlags.waitForHealthy > 0 {
		cfg.Upstream.WaitForHealthy = runFlags.waitForHealthy
	}

	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}
	return nil
}

// parsePortRange parses "start-end" or a single port.
func parsePortRange(s string) (int, int, error) {
	lo, hi, found := strings.Cut(strings.TrimSpace(s), "-")
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid port %q", lo)
	}
	if !found {
		return start, start, nil
	}
	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid port %q", hi)
	}
	if end < start {
		return 0, 0, fmt.Errorf("range end %d is below start %d", end, start)
	}
	return start, end, nil
}

func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Callisto v%s\n", Version)
	if cfgFile != "" {
		fmt.Fprintf(w, "Loading configuration from: %s\n", cfgFile)
	}
	fmt.Fprintln(w, "✓ Configuration loaded")
	fmt.Fprintf(w, "✓ Upstream: %s (probe %s every %s)\n",
		cfg.Upstream.URL, cfg.Upstream.ProbePath, cfg.Upstream.ProbeInterval)
	fmt.Fprintf(w, "✓ Port range: %d-%d\n", cfg.Gateway.PortRangeStart, cfg.Gateway.PortRangeEnd)
	fmt.Fprintf(w, "✓ Routes: %d\n", len(cfg.Routes))
	if cfg.Auth.Enabled {
		fmt.Fprintf(w, "✓ Access keys: %d (header %s)\n", len(cfg.Auth.Keys), cfg.Auth.Header)
	}
	if cfg.Journal.Enabled {
		fmt.Fprintf(w, "✓ Journal: %s\n", cfg.Journal.Path)
	}
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/upstream"
)

var probeFlags struct {
	upstream string
	timeout  time.Duration
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Probe the upstream once",
	Long: `Send a single health probe to the upstream and report the result.
The command exits non-zero when the upstream is unhealthy.

Examples:
  callisto probe
  callisto probe --upstream http://127.0.0.1:8000 --timeout 2s`,
	RunE: probeUpstream,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringVarP(&probeFlags.upstream, "upstream", "u", "", "override upstream URL")
	probeCmd.Flags().DurationVar(&probeFlags.timeout, "timeout", 0, "override probe timeout")
}

func probeUpstream(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if probeFlags.upstream != "" {
		cfg.Upstream.URL = probeFlags.upstream
	}
	if probeFlags.timeout > 0 {
		cfg.Upstream.ProbeTimeout = probeFlags.timeout
	}

	target, err := upstream.ParseTarget(cfg.Upstream.URL)
	if err != nil {
		return cli.NewConfigError("upstream.url", err.Error())
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	tracker := upstream.NewTracker(target, upstream.TrackerConfig{
		ProbePath:        cfg.Upstream.ProbePath,
		Interval:         cfg.Upstream.ProbeInterval,
		Timeout:          cfg.Upstream.ProbeTimeout,
		FailureThreshold: cfg.Upstream.FailureThreshold,
	}, nil, logger, nil)

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Upstream.ProbeTimeout+time.Second)
	defer cancel()

	start := time.Now()
	state := tracker.ProbeOnce(ctx)
	elapsed := time.Since(start).Round(time.Millisecond)

	out := cmd.OutOrStdout()
	if state.Status != upstream.StatusHealthy {
		fmt.Fprintf(out, "✗ %s%s is %s (%s): %s\n", target.String(), cfg.Upstream.ProbePath, state.Status, elapsed, state.LastError)
		return cli.NewCommandError("probe", fmt.Errorf("upstream %s is %s", target.Address(), state.Status))
	}

	fmt.Fprintf(out, "✓ %s%s is %s (%s)\n", target.String(), cfg.Upstream.ProbePath, state.Status, elapsed)
	return nil
}

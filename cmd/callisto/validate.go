package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/routing"
	"mercator-hq/callisto/pkg/upstream"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration with environment overrides, validate it, and
build the route table without binding any port or contacting the upstream.

Examples:
  callisto validate
  callisto validate --config /etc/callisto/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	target, err := upstream.ParseTarget(cfg.Upstream.URL)
	if err != nil {
		return cli.NewConfigError("upstream.url", err.Error())
	}

	table, err := routing.TableFromConfig(cfg)
	if err != nil {
		return cli.NewConfigError("routes", err.Error())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✓ Configuration valid")
	fmt.Fprintf(out, "  Upstream:   %s\n", target.String())
	fmt.Fprintf(out, "  Port range: %d-%d on %s\n", cfg.Gateway.PortRangeStart, cfg.Gateway.PortRangeEnd, cfg.Gateway.BindHost)
	fmt.Fprintf(out, "  Routes:     %d\n", table.Len())
	fmt.Fprintf(out, "  Auth:       %s\n", enabledString(cfg.Auth.Enabled))
	fmt.Fprintf(out, "  Journal:    %s\n", enabledString(cfg.Journal.Enabled))
	fmt.Fprintf(out, "  Tracing:    %s\n", enabledString(cfg.Telemetry.Tracing.Enabled))
	return nil
}

func enabledString(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

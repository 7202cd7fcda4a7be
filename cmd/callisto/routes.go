package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/routing"
)

var routesFlags struct {
	output string
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the effective route table",
	Long: `Print the forwarding rules in match order: exact rules first, then
prefix rules from longest to shortest.

Examples:
  callisto routes
  callisto routes --output json`,
	RunE: printRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.Flags().StringVarP(&routesFlags.output, "output", "o", "text", "output format: text, json, csv")
}

func printRoutes(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(routesFlags.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	table, err := routing.TableFromConfig(cfg)
	if err != nil {
		return cli.NewConfigError("routes", err.Error())
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), routeTable(table.Rules()))
}

type routeRecord struct {
	Name         string `json:"name"`
	Method       string `json:"method"`
	Mode         string `json:"mode"`
	Pattern      string `json:"pattern"`
	UpstreamPath string `json:"upstream_path"`
	Timeout      string `json:"timeout"`
	LongRunning  bool   `json:"long_running"`
	HealthGated  bool   `json:"health_gated"`
}

func routeTable(rules []routing.Rule) *cli.Table {
	t := &cli.Table{
		Headers: []string{"NAME", "METHOD", "MODE", "PATTERN", "UPSTREAM", "TIMEOUT", "GATED"},
	}
	records := make([]routeRecord, 0, len(rules))
	for _, r := range rules {
		rec := routeRecord{
			Name:         r.Name,
			Method:       r.Method,
			Mode:         string(r.Mode),
			Pattern:      r.Pattern,
			UpstreamPath: r.UpstreamPath,
			Timeout:      r.Timeout.String(),
			LongRunning:  r.LongRunning,
			HealthGated:  r.HealthGated,
		}
		records = append(records, rec)
		t.Rows = append(t.Rows, []string{
			rec.Name, rec.Method, rec.Mode, rec.Pattern, rec.UpstreamPath, rec.Timeout, strconv.FormatBool(rec.HealthGated),
		})
	}
	t.Records = records
	return t
}

package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/journal"
)

var journalFlags struct {
	since     time.Duration
	route     string
	minStatus int
	limit     int
	output    string
	olderThan int
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the request journal",
	Long: `Query and prune the SQLite request journal written by "callisto run"
when journal.enabled is true.

Subcommands:
  query   - List recent requests
  prune   - Delete entries older than a number of days

Examples:
  # Requests from the last hour
  callisto journal query --since 1h

  # Failed requests on one route, as JSON
  callisto journal query --route openai --min-status 500 --output json

  # Delete entries older than 30 days
  callisto journal prune --older-than 30`,
}

var journalQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "List journal entries, newest first",
	RunE:  queryJournal,
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old journal entries",
	RunE:  pruneJournal,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalQueryCmd, journalPruneCmd)

	journalQueryCmd.Flags().DurationVar(&journalFlags.since, "since", 0, "only entries newer than this duration, e.g. 1h")
	journalQueryCmd.Flags().StringVar(&journalFlags.route, "route", "", "filter by route name")
	journalQueryCmd.Flags().IntVar(&journalFlags.minStatus, "min-status", 0, "only entries with at least this status code")
	journalQueryCmd.Flags().IntVar(&journalFlags.limit, "limit", 100, "max results")
	journalQueryCmd.Flags().StringVarP(&journalFlags.output, "output", "o", "text", "output format: text, json, csv")

	journalPruneCmd.Flags().IntVar(&journalFlags.olderThan, "older-than", 0, "delete entries older than this many days (default: journal.retention_days)")
}

func openJournal() (*journal.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := journal.Open(journal.StoreConfig{
		Path:        cfg.Journal.Path,
		BusyTimeout: cfg.Journal.BusyTimeout,
	}, discardLogger())
	if err != nil {
		return nil, cli.NewCommandError("journal", err)
	}
	return store, nil
}

func queryJournal(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(journalFlags.output)
	if err != nil {
		return err
	}

	store, err := openJournal()
	if err != nil {
		return err
	}
	defer store.Close()

	filter := journal.Filter{
		Route:     journalFlags.route,
		MinStatus: journalFlags.minStatus,
		Limit:     journalFlags.limit,
	}
	if journalFlags.since > 0 {
		filter.Since = time.Now().Add(-journalFlags.since)
	}

	entries, err := store.Query(cmd.Context(), filter)
	if err != nil {
		return cli.NewCommandError("journal query", err)
	}

	if len(entries) == 0 && format == cli.FormatText {
		fmt.Fprintln(cmd.OutOrStdout(), "No journal entries found.")
		return nil
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), entryTable(entries))
}

func pruneJournal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	days := journalFlags.olderThan
	if days <= 0 {
		days = cfg.Journal.RetentionDays
	}
	if days <= 0 {
		return cli.NewConfigError("--older-than", "retention is disabled; pass a positive number of days")
	}

	store, err := openJournal()
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	deleted, err := store.Prune(ctx, cutoff)
	if err != nil {
		return cli.NewCommandError("journal prune", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %d entries older than %s\n", deleted, cutoff.Format(time.RFC3339))
	return nil
}

func entryTable(entries []journal.Entry) *cli.Table {
	t := &cli.Table{
		Headers: []string{"TIME", "METHOD", "PATH", "ROUTE", "STATUS", "DURATION_MS", "BYTES", "ERROR"},
		Records: entries,
	}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{
			e.Time.Format(time.RFC3339),
			e.Method,
			e.Path,
			e.Route,
			strconv.Itoa(e.Status),
			strconv.FormatInt(e.DurationMs, 10),
			strconv.FormatInt(e.BytesOut, 10),
			e.Error,
		})
	}
	return t
}

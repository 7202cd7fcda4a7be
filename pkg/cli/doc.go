/*
Package cli provides helpers shared by the callisto commands.

Output Formatting:

Commands that list things accept --output text|json|csv:

	format, err := cli.ParseOutputFormat(flag)
	if err != nil {
		return err
	}
	table := &cli.Table{Headers: []string{"NAME", "PATH"}, Rows: rows}
	return cli.NewFormatter(format).FormatTo(os.Stdout, table)

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

Errors:

ConfigError and CommandError wrap failures for the command layer, and
ExitCode maps them to the process exit status.
*/
package cli

/*
Package cli provides helpers shared by the atlas commands.

Output Formatting:

Commands print results as text (default) or JSON:

	formatter, err := cli.NewFormatter(cli.OutputFormat(flagValue))
	if err != nil {
		return err
	}
	return formatter.FormatTo(cmd.OutOrStdout(), result)

A result type that implements TextWriter controls its own text rendering.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
	// ctx is cancelled on SIGINT or SIGTERM
*/
package cli

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"deckforge-hq/atlas/pkg/cli"
	"deckforge-hq/atlas/pkg/config"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	envFile    string
	output     string
	verbose    bool

	// configExplicit is set when --config was given on the command line;
	// a missing file is then an error instead of an empty configuration.
	configExplicit bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "atlas",
		Short: "Atlas - multi-provider generative AI gateway",
		Long: `Atlas routes generative AI requests from the deck editor to one or more
model providers.

It provides:
  - Provider registration from a YAML configuration with hot reload
  - Load balancing (round_robin, random, least_loaded, fastest_response, cost_optimized)
  - Sequential failover across healthy providers
  - Per-provider rate limiting and retry with backoff
  - Background health monitoring, Prometheus metrics and OpenTelemetry traces`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.configExplicit = cmd.Flags().Changed("config")
			return opts.loadEnvFile(cmd.Flags().Changed("env-file"))
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "config file path")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", string(cli.FormatJSON), "output format: text, json")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newRunCmd(opts),
		newCompleteCmd(opts),
		newStreamCmd(opts),
		newEstimateCmd(opts),
		newStatusCmd(opts),
		newValidateCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

// loadEnvFile loads the dotenv file without overriding variables that are
// already set. A missing default file is ignored.
func (o *rootOptions) loadEnvFile(explicit bool) error {
	if o.envFile == "" {
		return nil
	}
	err := godotenv.Load(o.envFile)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return nil
	default:
		return cli.NewConfigError("env-file", err.Error())
	}
}

// loadConfig reads the configuration file with ATLAS_* overrides applied.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configExplicit {
		if _, err := os.Stat(o.configPath); err != nil {
			return nil, cli.NewConfigError("config", err.Error())
		}
	}
	return config.LoadConfigWithEnvOverrides(o.configPath)
}

func (o *rootOptions) formatter() (cli.Formatter, error) {
	return cli.NewFormatter(cli.OutputFormat(o.output))
}

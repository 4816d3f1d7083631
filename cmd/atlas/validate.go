package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Long: `Load the configuration file with environment overrides and defaults
applied, and report every validation error.

Examples:
  atlas validate
  atlas validate --config /etc/atlas/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			names := make([]string, 0, len(cfg.Providers))
			for name := range cfg.Providers {
				names = append(names, name)
			}
			sort.Strings(names)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "✓ Configuration valid")
			fmt.Fprintf(out, "  strategy: %s\n", cfg.Manager.Strategy)
			fmt.Fprintf(out, "  health check interval: %s\n", cfg.Manager.HealthCheckInterval)
			fmt.Fprintf(out, "  unhealthy threshold: %d\n", cfg.Manager.UnhealthyThreshold)
			fmt.Fprintf(out, "  providers (%d):\n", len(names))
			for _, name := range names {
				p := cfg.Providers[name]
				fmt.Fprintf(out, "    - %s (%s, priority %d, weight %.2f)\n", name, p.Kind, p.Priority, p.Weight)
			}
			return nil
		},
	}
}

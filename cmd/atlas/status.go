package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"deckforge-hq/atlas/pkg/routing"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show provider status and aggregate metrics",
		Long: `Register the configured providers and report their status.

Each provider answers a fresh health check. With --check the verdicts are
also applied to provider eligibility before reporting, as a monitor sweep
would.

Examples:
  atlas status
  atlas status --check -o text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := root.formatter()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if check {
				a.manager.CheckHealth(ctx)
			}

			report := statusReport{
				Strategy:  a.manager.Strategy(),
				Providers: a.manager.ProviderStatus(ctx),
				Global:    a.manager.GlobalMetrics(),
			}
			if next, ok := a.manager.NextHealthCheck(); ok {
				report.NextHealthCheck = &next
			}
			return formatter.FormatTo(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "apply a health sweep before reporting")
	return cmd
}

type statusReport struct {
	Strategy        string                            `json:"strategy"`
	Providers       map[string]routing.ProviderStatus `json:"providers"`
	Global          routing.GlobalMetrics             `json:"global"`
	NextHealthCheck *time.Time                        `json:"next_health_check,omitempty"`
}

func (r statusReport) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "strategy: %s  providers: %d/%d healthy\n\n",
		r.Strategy, r.Global.ActiveProviders, r.Global.TotalProviders)

	names := make([]string, 0, len(r.Providers))
	for name := range r.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tKIND\tSTATE\tELIGIBLE\tHEALTH\tSCORE\tREQUESTS\tFAILURES")
	for _, name := range names {
		s := r.Providers[name]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%.2f\t%d\t%d\n",
			name, s.Kind, s.State, s.Healthy, s.Health.Status,
			s.Metrics.HealthScore, s.Metrics.TotalRequests, s.Metrics.ConsecutiveFailures)
	}
	return tw.Flush()
}

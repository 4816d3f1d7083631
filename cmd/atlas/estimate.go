package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"deckforge-hq/atlas/pkg/providers"
)

func newEstimateCmd(root *rootOptions) *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "estimate [prompt]",
		Short: "Estimate the cost of a request on every healthy provider",
		Long: `Estimate the cost of a request on every healthy provider.

Prompt tokens are approximated from the prompt length; completion tokens
are the requested maximum.

Examples:
  atlas estimate --prompt "Summarize this slide" --max-tokens 500
  atlas estimate -o text "Generate ten slide titles"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.build(args, false)
			if err != nil {
				return err
			}
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

			return formatter.FormatTo(cmd.OutOrStdout(), estimateView(a.manager.EstimateCost(ctx, req)))
		},
	}

	flags.register(cmd)
	return cmd
}

// estimateView renders per-provider cost estimates.
type estimateView map[string]*providers.CostEstimate

func (v estimateView) WriteText(w io.Writer) error {
	if len(v) == 0 {
		_, err := fmt.Fprintln(w, "no healthy providers")
		return err
	}

	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tMODEL\tPROMPT\tCOMPLETION\tCOST")
	for _, name := range names {
		e := v[name]
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.6f %s\n",
			name, e.Model, e.EstimatedPromptTokens, e.EstimatedCompletionTokens, e.EstimatedCostUSD, e.Currency)
	}
	return tw.Flush()
}

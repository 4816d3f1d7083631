package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"deckforge-hq/atlas/pkg/cli"
	"deckforge-hq/atlas/pkg/providers"
	"deckforge-hq/atlas/pkg/routing"
)

type completeOptions struct {
	request    requestFlags
	provider   string
	noFallback bool
}

func newCompleteCmd(root *rootOptions) *cobra.Command {
	opts := &completeOptions{}

	cmd := &cobra.Command{
		Use:   "complete [prompt]",
		Short: "Generate one completion through the provider manager",
		Long: `Generate one completion through the provider manager.

The preferred provider is tried first when it is registered and healthy;
otherwise, and on failure, the remaining healthy providers are tried in
strategy order unless --no-fallback is given.

Examples:
  atlas complete --prompt "Write a title for a Q3 results deck"
  atlas complete --operation design_suggestion --provider primary "Suggest a color palette"
  atlas complete -o text --context '{"slide_count": 12}' "Outline the deck"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request.build(args, false)
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

			resp, err := a.manager.GenerateCompletion(ctx, req, opts.provider, !opts.noFallback)
			if err != nil {
				return cli.NewCommandError("complete", err)
			}
			return formatter.FormatTo(cmd.OutOrStdout(), completionView{resp})
		},
	}

	opts.request.register(cmd)
	cmd.Flags().StringVar(&opts.provider, "provider", "", "preferred provider name")
	cmd.Flags().BoolVar(&opts.noFallback, "no-fallback", false, "only try the preferred provider")
	return cmd
}

// completionView renders a completion response.
type completionView struct {
	*providers.CompletionResponse
}

func (v completionView) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s\n\nprovider: %v  model: %s  tokens: %d  cost: $%.6f\n",
		v.Content,
		v.Metadata[routing.MetadataProviderName],
		v.Model,
		v.Usage.TotalTokens,
		v.Usage.Cost,
	)
	return err
}

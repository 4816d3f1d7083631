package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"deckforge-hq/atlas/pkg/cli"
)

type streamOptions struct {
	request  requestFlags
	provider string
}

func newStreamCmd(root *rootOptions) *cobra.Command {
	opts := &streamOptions{}

	cmd := &cobra.Command{
		Use:   "stream [prompt]",
		Short: "Stream a completion to stdout",
		Long: `Stream a completion to stdout as fragments arrive.

The stream is served by the preferred provider when it is healthy, or by the
first provider in strategy order. A stream that fails part way is not
retried on another provider.

Examples:
  atlas stream --prompt "Outline a product launch deck"
  atlas stream --provider backup "Draft speaker notes for slide 3"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request.build(args, true)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			out := cmd.OutOrStdout()
			wrote := false
			for chunk := range a.manager.GenerateStream(ctx, req, opts.provider) {
				if chunk.Err != nil {
					if wrote {
						fmt.Fprintln(out)
					}
					return cli.NewCommandError("stream", chunk.Err)
				}
				if chunk.Content == "" {
					continue
				}
				fmt.Fprint(out, chunk.Content)
				wrote = true
			}
			if wrote {
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	opts.request.register(cmd)
	cmd.Flags().StringVar(&opts.provider, "provider", "", "preferred provider name")
	return cmd
}

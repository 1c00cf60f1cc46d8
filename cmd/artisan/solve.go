package main

import (
	"context"
	"errors"

	"github.com/aretw0/artisan/internal/cli"
	"github.com/spf13/cobra"
)

var solveCmd = &cobra.Command{
	Use:   "solve [request.yaml|-]",
	Short: "Find the best macro for a recipe",
	Long: `Solves a request and prints the macro. The request is a YAML or JSON file
holding either explicit settings or a recipe name and crafter stats, or it is
built from flags:

  artisan solve --recipe "Claro Walnut Lumber" --craftsmanship 3300 --control 3200 --cp 600 --level 90`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		opts.Progress, _ = cmd.Flags().GetBool("progress")
		watch, _ := cmd.Flags().GetBool("watch")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		if watch {
			if len(args) == 0 || args[0] == "-" {
				return errors.New("--watch needs a request file")
			}
			return cli.RunWatch(sigCtx, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		}

		req, err := loadRequest(cmd, args)
		if err != nil {
			return err
		}
		return cli.RunSolve(sigCtx, cmd.OutOrStdout(), cmd.ErrOrStderr(), req, opts)
	},
}

func init() {
	rootCmd.AddCommand(solveCmd)
	addRequestFlags(solveCmd)
	solveCmd.Flags().Bool("progress", false, "Report improvements on stderr while searching")
	solveCmd.Flags().BoolP("watch", "w", false, "Solve again whenever the request file changes")
}

package main

import (
	"github.com/aretw0/artisan/internal/cli"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [request.yaml|-]",
	Short: "Replay a macro step by step",
	Long:  `Replays the request's macro (or --macro) and prints the state after every step.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := loadRequest(cmd, args)
		if err != nil {
			return err
		}
		return cli.RunSimulate(cmd.OutOrStdout(), req, options(cmd))
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph [request.yaml|-]",
	Short: "Export a macro as a Mermaid diagram",
	Long:  `Prints a Mermaid diagram (graph TD) of the request's macro, or of the solved macro when the request has none.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := loadRequest(cmd, args)
		if err != nil {
			return err
		}
		opts := options(cmd)
		opts.Format = cli.FormatMermaid
		if len(req.Macro) > 0 {
			return cli.RunSimulate(cmd.OutOrStdout(), req, opts)
		}
		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		return cli.RunSolve(sigCtx, cmd.OutOrStdout(), cmd.ErrOrStderr(), req, opts)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [request.yaml|-]",
	Short: "Check a request without solving it",
	Long:  `Loads the catalog, resolves the settings and parses the macro, reporting the first problem found.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := loadRequest(cmd, args)
		if err != nil {
			return err
		}
		return cli.RunValidate(cmd.OutOrStdout(), req, options(cmd))
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(validateCmd)
	addRequestFlags(simulateCmd)
	addRequestFlags(graphCmd)
	addRequestFlags(validateCmd)
}

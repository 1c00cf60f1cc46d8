package main

import (
	"errors"

	"github.com/aretw0/artisan/internal/cli"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached macros",
	Long:  `List, inspect, and remove solved macros stored by --store (file: .artisan/macros).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// The cache commands default to the file store.
		if !cmd.Flags().Changed("store") {
			_ = cmd.Flags().Set("store", cli.StoreFile)
		}
	},
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached macros",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListCache(cmd.Context(), cmd.OutOrStdout(), options(cmd))
	},
}

var cacheInspectCmd = &cobra.Command{
	Use:   "inspect <key>",
	Short: "Print a cached macro record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.InspectCache(cmd.Context(), cmd.OutOrStdout(), args[0], options(cmd))
	},
}

var cacheRmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Remove cached macros",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return errors.New("pass keys to remove or --all")
		}
		return cli.RemoveCache(cmd.Context(), cmd.OutOrStdout(), args, all, options(cmd))
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheLsCmd)
	cacheCmd.AddCommand(cacheInspectCmd)
	cacheCmd.AddCommand(cacheRmCmd)
	cacheRmCmd.Flags().Bool("all", false, "Remove every cached macro")
}

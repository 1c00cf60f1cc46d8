package main

import (
	"fmt"

	"github.com/aretw0/artisan"
	"github.com/aretw0/artisan/internal/cli"
	"github.com/spf13/cobra"
)

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List the actions of the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		level, _ := cmd.Flags().GetInt("level")
		return cli.RunActions(cmd.OutOrStdout(), opts.Catalog, level, opts.Format)
	},
}

var recipesCmd = &cobra.Command{
	Use:   "recipes [query]",
	Short: "List or search the recipe table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := options(cmd)
		var query string
		if len(args) > 0 {
			query = args[0]
		}
		return cli.RunRecipes(cmd.OutOrStdout(), opts.Recipes, query, opts.Format)
	},
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the search strategies",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range artisan.New().Strategies() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func init() {
	rootCmd.AddCommand(actionsCmd)
	rootCmd.AddCommand(recipesCmd)
	rootCmd.AddCommand(strategiesCmd)
	actionsCmd.Flags().Int("level", 0, "Resolve level upgrades for this job level")
}

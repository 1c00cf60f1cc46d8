package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/artisan"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of artisan",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "artisan version %s\n", strings.TrimSpace(artisan.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

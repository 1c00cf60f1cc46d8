package main

import (
	"errors"
	"os"

	"github.com/aretw0/artisan/pkg/config"
	"github.com/aretw0/artisan/pkg/gamedata"
	"github.com/spf13/cobra"
)

// addRequestFlags registers the flags that build or amend a request.
func addRequestFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("recipe", "", "Recipe name from the recipe table")
	flags.Int("craftsmanship", 0, "Crafter craftsmanship")
	flags.Int("control", 0, "Crafter control")
	flags.Int("cp", 0, "Crafter CP")
	flags.Int("level", 0, "Crafter job level")
	flags.Bool("manipulation", false, "The crafter has learned Manipulation")
	flags.StringSlice("actions", nil, "Restrict the search to these actions")
	flags.StringSlice("macro", nil, "Macro to simulate, as action names")
	flags.String("strategy", "", "Search strategy (see 'artisan strategies')")
	flags.Int("workers", 0, "Search workers (defaults to the CPU count)")
	flags.Duration("time-budget", 0, "Stop searching after this long and return the best macro")
	flags.Uint64("node-limit", 0, "Stop searching after expanding this many nodes")
	flags.Uint64("seed", 0, "Seed for the evolutionary strategy")
}

// loadRequest reads the request file named by args, "-" for stdin, or builds
// one from the recipe flags. Flags override the file.
func loadRequest(cmd *cobra.Command, args []string) (*config.Request, error) {
	var (
		req *config.Request
		err error
	)
	switch {
	case len(args) > 0 && args[0] == "-":
		req, err = config.Load(os.Stdin)
	case len(args) > 0:
		req, err = config.LoadFile(args[0])
	default:
		req = &config.Request{}
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("recipe") {
		req.Recipe, _ = flags.GetString("recipe")
	}
	if flags.Changed("craftsmanship") || flags.Changed("control") || flags.Changed("cp") || flags.Changed("level") || flags.Changed("manipulation") {
		if req.Crafter == nil {
			req.Crafter = &gamedata.Crafter{}
		}
		if flags.Changed("craftsmanship") {
			req.Crafter.Craftsmanship, _ = flags.GetInt("craftsmanship")
		}
		if flags.Changed("control") {
			req.Crafter.Control, _ = flags.GetInt("control")
		}
		if flags.Changed("cp") {
			req.Crafter.CP, _ = flags.GetInt("cp")
		}
		if flags.Changed("level") {
			req.Crafter.JobLevel, _ = flags.GetInt("level")
		}
		if flags.Changed("manipulation") {
			req.Crafter.Manipulation, _ = flags.GetBool("manipulation")
		}
	}
	if flags.Changed("actions") {
		req.Actions, _ = flags.GetStringSlice("actions")
	}
	if flags.Changed("macro") {
		req.Macro, _ = flags.GetStringSlice("macro")
	}
	if flags.Changed("strategy") {
		req.Options.Strategy, _ = flags.GetString("strategy")
	}
	if flags.Changed("workers") {
		req.Options.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("time-budget") {
		req.Options.TimeBudget, _ = flags.GetDuration("time-budget")
	}
	if flags.Changed("node-limit") {
		req.Options.NodeLimit, _ = flags.GetUint64("node-limit")
	}
	if flags.Changed("seed") {
		req.Options.Seed, _ = flags.GetUint64("seed")
	}

	if req.Settings == nil && (req.Recipe == "" || req.Crafter == nil) {
		return nil, errors.New("pass a request file or --recipe with crafter stats")
	}
	return req, nil
}

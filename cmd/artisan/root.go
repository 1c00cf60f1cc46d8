package main

import (
	"fmt"
	"os"

	"github.com/aretw0/artisan/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "artisan",
	Short: "Artisan finds the best crafting macro for a recipe",
	Long: `Artisan simulates crafting steps exactly and searches the space of
action sequences for the macro that finishes the item with the most quality.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Project directory holding the .artisan cache")
	flags.String("catalog", "", "Action catalog file (defaults to the embedded catalog)")
	flags.String("recipes", "", "Recipe table file (defaults to the embedded table)")
	flags.String("store", cli.StoreNone, "Macro cache: none, memory, file or redis")
	flags.String("redis-addr", "localhost:6379", "Redis address for --store redis")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.Duration("cache-ttl", 0, "Expiry of cached macros in redis (0 keeps them)")
	flags.String("cache-secret", os.Getenv("ARTISAN_CACHE_SECRET"), "Passphrase that encrypts cached macros at rest")
	flags.StringP("format", "f", cli.FormatText, "Output format: text, json, yaml, markdown or mermaid")
	flags.Bool("debug", false, "Log solver events to stderr")
}

// options collects the persistent flags.
func options(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	var opts cli.Options
	opts.Dir, _ = flags.GetString("dir")
	opts.Catalog, _ = flags.GetString("catalog")
	opts.Recipes, _ = flags.GetString("recipes")
	opts.Store, _ = flags.GetString("store")
	opts.RedisAddr, _ = flags.GetString("redis-addr")
	opts.RedisPassword, _ = flags.GetString("redis-password")
	opts.RedisDB, _ = flags.GetInt("redis-db")
	opts.CacheTTL, _ = flags.GetDuration("cache-ttl")
	opts.CacheSecret, _ = flags.GetString("cache-secret")
	opts.Format, _ = flags.GetString("format")
	opts.Debug, _ = flags.GetBool("debug")
	return opts
}

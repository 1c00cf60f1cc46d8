/*
Package artisan computes crafting macros: ordered action sequences that
complete a production process within its durability and CP budgets while
maximizing quality.

The module is split into a deterministic simulator (pkg/simulator), an
admissible quality bound, several search strategies and an orchestrator that
picks one of them, gates on feasibility and reports every strictly better
macro as it is found.

# Usage

	solver := artisan.New()

	settings := domain.Settings{
		MaxCP:          600,
		MaxDurability:  80,
		ProgressTarget: 7480,
		QualityTarget:  13620,
		BaseProgress:   201,
		BaseQuality:    228,
	}

	res, err := solver.Solve(ctx, settings, artisan.Options{TimeBudget: 5 * time.Second})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Actions)

Settings can also be derived from a recipe table and crafter stats with
pkg/gamedata, or decoded from request files with pkg/config.

# Strategies

  - branch_and_bound: exhaustive depth-first search with bound pruning and a
    transposition table. Optimal when it finishes.
  - iterative_deepening: the same search with an increasing step limit, so
    shorter macros are found first.
  - evolutionary: an anytime genetic search for spaces too large to exhaust.
  - finish_only: the shortest macro that reaches the progress target.

The default "auto" picks one from the estimated size of the search space and
the time budget.

# Caching

WithStore caches optimal results keyed by CacheKey. Stores live in
pkg/adapters (memory, redis) and internal/adapters/file; WithLocker adds a
distributed lock so replicas sharing a store solve each key once.

# Observability

WithLifecycleHooks receives phase, improvement, progress and finish events.
pkg/observability provides ready-made logging and Prometheus hooks.
*/
package artisan

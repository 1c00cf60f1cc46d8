package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/artisan/internal/search"
	"github.com/aretw0/artisan/pkg/domain"
)

// Strategy names understood by the engine.
const (
	StrategyAuto         = "auto"
	StrategyExhaustive   = "branch_and_bound"
	StrategyDeepening    = "iterative_deepening"
	StrategyFinishOnly   = "finish_only"
	StrategyEvolutionary = "evolutionary"
)

// Options tunes a solve.
type Options struct {
	// Strategy forces a registered strategy. Empty or "auto" lets the engine choose.
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty" mapstructure:"strategy"`
	// Workers is the parallelism of the search. Zero means GOMAXPROCS.
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty" mapstructure:"workers"`
	// NodeLimit caps node expansions. Zero means unlimited.
	NodeLimit uint64 `json:"node_limit,omitempty" yaml:"node_limit,omitempty" mapstructure:"node_limit"`
	// TimeBudget bounds the search phase. Reaching it is not a cancellation.
	TimeBudget time.Duration `json:"time_budget,omitempty" yaml:"time_budget,omitempty" mapstructure:"time_budget"`
	// ProgressInterval is the period of progress events. Zero disables them.
	ProgressInterval time.Duration `json:"progress_interval,omitempty" yaml:"progress_interval,omitempty" mapstructure:"progress_interval"`
	// ExhaustiveLimit is the largest log10 search space size the automatic
	// choice searches exhaustively when a time budget is set.
	ExhaustiveLimit float64 `json:"exhaustive_limit,omitempty" yaml:"exhaustive_limit,omitempty" mapstructure:"exhaustive_limit"`
	// Seed drives the evolutionary strategy.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty" mapstructure:"seed"`
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		Strategy:         StrategyAuto,
		ProgressInterval: 500 * time.Millisecond,
		ExhaustiveLimit:  14,
		Seed:             search.DefaultEvolutionary().Seed,
	}
}

// merge fills zero fields from the defaults.
func (o Options) merge(d Options) Options {
	if o.Strategy == "" {
		o.Strategy = d.Strategy
	}
	if o.Workers == 0 {
		o.Workers = d.Workers
	}
	if o.NodeLimit == 0 {
		o.NodeLimit = d.NodeLimit
	}
	if o.TimeBudget == 0 {
		o.TimeBudget = d.TimeBudget
	}
	if o.ProgressInterval == 0 {
		o.ProgressInterval = d.ProgressInterval
	}
	if o.ExhaustiveLimit == 0 {
		o.ExhaustiveLimit = d.ExhaustiveLimit
	}
	if o.Seed == 0 {
		o.Seed = d.Seed
	}
	return o
}

// StrategyFactory builds a strategy for one solve.
type StrategyFactory func(Options) search.Strategy

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithOptions sets the default tuning of every solve.
func WithOptions(opts Options) EngineOption {
	return func(e *Engine) {
		e.defaults = opts.merge(e.defaults)
	}
}

// WithStrategy registers an additional strategy under name.
func WithStrategy(name string, factory StrategyFactory) EngineOption {
	return func(e *Engine) {
		e.strategies.Register(name, factory)
	}
}

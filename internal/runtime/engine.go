// Package runtime orchestrates a solve: it validates the configuration,
// gates on feasibility, picks a search strategy and turns the session's
// incumbent into a domain.Result.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/artisan/internal/search"
	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/registry"
	"github.com/aretw0/artisan/pkg/simulator"
	"github.com/google/uuid"
)

// Engine runs solves. It holds no per-solve state and is safe for
// concurrent use.
type Engine struct {
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	defaults   Options
	strategies *registry.Registry[StrategyFactory]
}

// NewEngine creates an engine with the built-in strategies registered.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
		defaults:   DefaultOptions(),
		strategies: registry.New[StrategyFactory](),
	}
	e.strategies.Register(StrategyExhaustive, func(Options) search.Strategy {
		return search.BranchAndBound{}
	})
	e.strategies.Register(StrategyDeepening, func(Options) search.Strategy {
		return search.BranchAndBound{Deepening: true}
	})
	e.strategies.Register(StrategyFinishOnly, func(Options) search.Strategy {
		return search.FinishOnly{}
	})
	e.strategies.Register(StrategyEvolutionary, func(o Options) search.Strategy {
		ev := search.DefaultEvolutionary()
		ev.Seed = o.Seed
		if o.TimeBudget > 0 {
			ev.Generations = 0
		}
		return ev
	})
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategies lists the registered strategy names.
func (e *Engine) Strategies() []string {
	return append([]string{StrategyAuto}, e.strategies.Names()...)
}

// Solve searches for the best macro. Cancelling ctx is not an error: the
// best macro found so far is returned with Cancelled set.
func (e *Engine) Solve(ctx context.Context, settings domain.Settings, c *catalog.Catalog, opts Options) (domain.Result, error) {
	return e.solve(ctx, uuid.NewString(), settings, c, opts, e.hooks)
}

// SolveSession is Solve under a caller-chosen session id.
func (e *Engine) SolveSession(ctx context.Context, sessionID string, settings domain.Settings, c *catalog.Catalog, opts Options) (domain.Result, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return e.solve(ctx, sessionID, settings, c, opts, e.hooks)
}

func (e *Engine) solve(ctx context.Context, id string, settings domain.Settings, c *catalog.Catalog, opts Options, hooks domain.LifecycleHooks) (domain.Result, error) {
	opts = opts.merge(e.defaults)
	logger := e.logger.With("session", id)

	sim, err := simulator.New(settings, c)
	if err != nil {
		return domain.Result{SessionID: id}, err
	}

	var factory StrategyFactory
	if opts.Strategy != StrategyAuto {
		if factory, err = e.strategies.Get(opts.Strategy); err != nil {
			return domain.Result{SessionID: id}, fmt.Errorf("%w: %q", domain.ErrUnknownStrategy, opts.Strategy)
		}
	}

	// The budget covers the feasibility gate as well as the search.
	budgetCtx := ctx
	if opts.TimeBudget > 0 {
		var cancel context.CancelFunc
		budgetCtx, cancel = context.WithTimeout(ctx, opts.TimeBudget)
		defer cancel()
	}

	rep := newReporter(ctx, id, sim, hooks)
	sess := search.NewSession(sim, search.Config{
		Workers:   opts.Workers,
		NodeLimit: opts.NodeLimit,
		Logger:    logger,
		OnImprove: rep.improved,
	})

	rep.phase(domain.PhaseFeasibility, "")
	fin, err := search.Finish(budgetCtx, sess)
	feasible := false
	switch {
	case errors.Is(err, domain.ErrRecipeInfeasible):
		logger.Info("recipe infeasible", "error", err)
		res := rep.result(sess, "", false, ctx.Err() != nil)
		rep.finish(&res, err)
		return res, err
	case errors.Is(err, search.ErrHalted):
		logger.Debug("feasibility check halted", "nodes", sess.Stats().Nodes)
	case err != nil:
		return domain.Result{SessionID: id}, err
	default:
		feasible = true
		sess.Offer(fin.Macro, fin.State)
		sess.MinSteps = uint8(len(fin.Macro))
		sess.Seeds = []domain.Macro{fin.Macro}
	}

	var strategy search.Strategy
	if factory != nil {
		strategy = factory(opts)
	} else {
		name, size := choose(sess, fin, opts)
		logger.Debug("strategy chosen", "strategy", name, "log10_space", size)
		factory, _ = e.strategies.Get(name)
		strategy = factory(opts)
	}

	if !sess.Stopped() {
		rep.phase(domain.PhaseSearch, strategy.Name())
		if err := e.run(budgetCtx, sess, strategy, opts, rep); err != nil {
			return domain.Result{SessionID: id}, err
		}
	}

	res := rep.result(sess, strategy.Name(), feasible, ctx.Err() != nil)
	logger.Info("solve finished",
		"strategy", res.Strategy,
		"found", res.Found,
		"quality", res.Score.Quality,
		"steps", res.Score.Steps,
		"optimal", res.Optimal,
		"cancelled", res.Cancelled,
		"nodes", res.Stats.Nodes,
	)
	rep.finish(&res, nil)
	return res, nil
}

// run executes strategy until ctx, which carries the time budget, is done
// while a ticker reports progress.
func (e *Engine) run(ctx context.Context, sess *search.Session, strategy search.Strategy, opts Options, rep *reporter) error {
	done := make(chan struct{})
	defer close(done)
	if opts.ProgressInterval > 0 {
		go func() {
			ticker := time.NewTicker(opts.ProgressInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					rep.progress(sess, strategy.Name())
				}
			}
		}()
	}

	err := strategy.Run(ctx, sess)
	if errors.Is(err, search.ErrHalted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Package search implements the interchangeable macro search strategies and
// the shared structures they coordinate through.
//
// A Session owns everything one solve shares between workers: the incumbent,
// the transposition table, the bound memo and the effort counters. Strategies
// never share anything else, and poll the session's stop flag between node
// expansions.
package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/aretw0/artisan/internal/bound"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/simulator"
)

// ErrHalted is returned when a strategy stops before reaching a verdict,
// because of cancellation or the node limit.
var ErrHalted = errors.New("search halted")

// Strategy explores the macro space of a session.
type Strategy interface {
	Name() string
	Run(ctx context.Context, s *Session) error
}

// Solution is a completed macro.
type Solution struct {
	Macro domain.Macro
	State domain.State
	Score domain.Score
}

// Config tunes a session.
type Config struct {
	// Workers is the number of parallel workers. Zero means GOMAXPROCS.
	Workers int
	// NodeLimit caps node expansions across all workers. Zero means unlimited.
	NodeLimit uint64
	// TableShards is the transposition table shard count, rounded up to a power of two.
	TableShards int
	Logger      *slog.Logger
	// OnImprove is called after every strict improvement of the incumbent.
	// It may be called concurrently.
	OnImprove func(Solution)
}

// Session is the shared state of one solve.
type Session struct {
	Sim     *simulator.Simulator
	Bound   *bound.Estimator
	Table   *Table
	Best    *Best
	Actions []domain.ActionID
	Workers int
	Logger  *slog.Logger

	// MinSteps is a lower bound on completing macro length, if known.
	MinSteps uint8
	// Seeds are macros offered to population-based strategies.
	Seeds []domain.Macro

	nodeLimit   uint64
	onImprove   func(Solution)
	started     time.Time
	nodes       atomic.Uint64
	pruned      atomic.Uint64
	generations atomic.Int64
	stopped     atomic.Bool
	halted      atomic.Bool
	optimal     atomic.Bool
}

// NewSession prepares a session for sim. Probabilistic actions are left out
// unless the settings allow them; searches assume they succeed.
func NewSession(sim *simulator.Simulator, cfg Config) *Session {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	allowProb := sim.Settings().AllowProbabilistic
	var actions []domain.ActionID
	for _, id := range sim.Allowed().IDs() {
		if allowProb || !sim.Action(id).Probabilistic() {
			actions = append(actions, id)
		}
	}

	return &Session{
		Sim:       sim,
		Bound:     bound.New(sim, actions),
		Table:     NewTable(cfg.TableShards),
		Best:      &Best{},
		Actions:   actions,
		Workers:   workers,
		Logger:    logger,
		nodeLimit: cfg.NodeLimit,
		onImprove: cfg.OnImprove,
		started:   time.Now(),
	}
}

// Watch sets the stop flag when ctx is done. The returned function detaches it.
func (s *Session) Watch(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() { s.stopped.Store(true) })
}

// Stop asks every worker to return at its next expansion.
func (s *Session) Stop() { s.stopped.Store(true) }

// Stopped reports whether workers should return.
func (s *Session) Stopped() bool { return s.stopped.Load() || s.halted.Load() }

// Halted reports whether the node limit was reached.
func (s *Session) Halted() bool { return s.halted.Load() }

// Optimal reports whether an exhaustive strategy finished.
func (s *Session) Optimal() bool { return s.optimal.Load() }

// expand accounts one node expansion and reports whether the worker may go on.
func (s *Session) expand() bool {
	if s.stopped.Load() {
		return false
	}
	n := s.nodes.Add(1)
	if s.nodeLimit > 0 && n > s.nodeLimit {
		s.halted.Store(true)
		return false
	}
	return !s.halted.Load()
}

func (s *Session) prune() { s.pruned.Add(1) }

// Offer submits a completed macro to the incumbent.
func (s *Session) Offer(macro domain.Macro, st domain.State) bool {
	if st.Outcome != domain.Completed {
		return false
	}
	sol := Solution{Macro: macro, State: st, Score: s.Sim.Score(st, macro)}
	if !s.Best.Offer(sol) {
		return false
	}
	if s.onImprove != nil {
		s.onImprove(sol)
	}
	return true
}

// promising reports whether a node with the given bound and depth may still
// beat the incumbent. The candidate assumes one more step and no duration.
func (s *Session) promising(ub uint32, step uint8) bool {
	steps := step
	if steps < domain.StepLimit {
		steps++
	}
	return s.Best.Beats(domain.Score{Quality: ub, Steps: steps})
}

// Stats snapshots the effort counters.
func (s *Session) Stats() domain.Stats {
	return domain.Stats{
		Nodes:       s.nodes.Load(),
		Pruned:      s.pruned.Load(),
		Generations: int(s.generations.Load()),
		TableSize:   s.Table.Len(),
		Elapsed:     time.Since(s.started),
	}
}

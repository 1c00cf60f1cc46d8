package search

import (
	"context"
	"slices"
	"sync/atomic"

	"github.com/aretw0/artisan/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// BranchAndBound is the exhaustive depth-first strategy. Run to completion
// it leaves the globally best macro in the incumbent and marks the session
// optimal.
type BranchAndBound struct {
	// Deepening raises the step limit one step at a time, starting from the
	// session's MinSteps, instead of searching the full step budget at once.
	Deepening bool
	// SplitDepth is how many leading actions partition work between workers.
	// Zero picks one level per worker count.
	SplitDepth int
}

func (b BranchAndBound) Name() string {
	if b.Deepening {
		return "iterative_deepening"
	}
	return "branch_and_bound"
}

// node is a frontier entry owned by a single worker.
type node struct {
	st      domain.State
	idx     uint32
	ub      uint32
	elapsed int
}

// prefix is a subtree root handed to a worker.
type prefix struct {
	macro   domain.Macro
	st      domain.State
	ub      uint32
	elapsed int
}

func (b BranchAndBound) Run(ctx context.Context, s *Session) error {
	defer s.Watch(ctx)()

	budget := s.Sim.Settings().StepBudget()
	limit := budget
	if b.Deepening {
		limit = max(s.MinSteps, 1)
	}

	for {
		var cutoff atomic.Bool
		if err := b.iterate(ctx, s, limit, &cutoff); err != nil {
			return err
		}
		if s.Stopped() {
			return nil
		}
		if !cutoff.Load() || limit >= budget {
			s.optimal.Store(true)
			return nil
		}
		s.Logger.Debug("deepening", "limit", limit+1, "nodes", s.nodes.Load())
		limit++
	}
}

func (b BranchAndBound) iterate(ctx context.Context, s *Session, limit uint8, cutoff *atomic.Bool) error {
	root := s.Sim.Initial()
	ub, ok := s.Bound.Estimate(root)
	if !ok {
		return nil
	}
	frontier := []prefix{{st: root, ub: ub}}

	depth := b.SplitDepth
	if depth <= 0 {
		depth = 1
		if s.Workers > 1 {
			depth = 2
		}
	}
	for range depth {
		frontier = b.split(s, frontier, limit, cutoff)
	}
	slices.SortFunc(frontier, func(x, y prefix) int { return int(y.ub) - int(x.ub) })

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for _, p := range frontier {
		if s.Stopped() {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			b.dfs(s, p, limit, cutoff)
			return nil
		})
	}
	return g.Wait()
}

// split expands each prefix by one action.
func (b BranchAndBound) split(s *Session, frontier []prefix, limit uint8, cutoff *atomic.Bool) []prefix {
	var out []prefix
	for _, p := range frontier {
		if p.st.Step > 0 && !s.promising(p.ub, p.st.Step) {
			continue
		}
		for _, id := range s.Actions {
			child, err := s.Sim.Apply(p.st, id, domain.Roll{})
			if err != nil {
				continue
			}
			macro := append(p.macro.Clone(), id)
			elapsed := p.elapsed + s.Sim.Action(id).Time
			if c, ok := b.child(s, child, macro, elapsed, limit, cutoff); ok {
				out = append(out, prefix{macro: macro, st: child, ub: c, elapsed: elapsed})
			}
		}
	}
	return out
}

// child classifies a generated state. Completed states are offered to the
// incumbent; the bound is returned for states worth exploring.
func (b BranchAndBound) child(s *Session, st domain.State, macro domain.Macro, elapsed int, limit uint8, cutoff *atomic.Bool) (uint32, bool) {
	switch st.Outcome {
	case domain.Completed:
		s.Offer(macro, st)
		return 0, false
	case domain.Failed:
		return 0, false
	}
	ub, ok := s.Bound.Estimate(st)
	if !ok || !s.promising(ub, st.Step) {
		s.prune()
		return 0, false
	}
	if st.Step >= limit {
		cutoff.Store(true)
		return 0, false
	}
	if !s.Table.Claim(st.Fingerprint(), limit-st.Step, elapsed) {
		s.prune()
		return 0, false
	}
	return ub, true
}

// dfs exhausts the subtree below p with an explicit stack. Arena indices on
// the stack increase from bottom to top, so popping a node releases every
// entry above it.
func (b BranchAndBound) dfs(s *Session, p prefix, limit uint8, cutoff *atomic.Bool) {
	arena := &Arena{}
	stack := []node{{st: p.st, idx: Sentinel, ub: p.ub, elapsed: p.elapsed}}

	type candidate struct {
		st      domain.State
		id      domain.ActionID
		ub      uint32
		elapsed int
	}
	var cands []candidate

	for len(stack) > 0 {
		if !s.expand() {
			return
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.idx != Sentinel {
			arena.Truncate(int(n.idx) + 1)
		}
		if !s.promising(n.ub, n.st.Step) {
			s.prune()
			continue
		}

		cands = cands[:0]
		for _, id := range s.Actions {
			child, err := s.Sim.Apply(n.st, id, domain.Roll{})
			if err != nil {
				continue
			}
			elapsed := n.elapsed + s.Sim.Action(id).Time
			if child.Outcome == domain.Completed {
				macro := append(append(p.macro.Clone(), arena.Path(n.idx)...), id)
				s.Offer(macro, child)
				continue
			}
			if ub, ok := b.child(s, child, nil, elapsed, limit, cutoff); ok {
				cands = append(cands, candidate{st: child, id: id, ub: ub, elapsed: elapsed})
			}
		}

		// Best bound on top of the stack.
		slices.SortStableFunc(cands, func(x, y candidate) int { return int(x.ub) - int(y.ub) })
		for _, c := range cands {
			idx := arena.Push(c.id, n.idx)
			stack = append(stack, node{st: c.st, idx: idx, ub: c.ub, elapsed: c.elapsed})
		}
	}
}

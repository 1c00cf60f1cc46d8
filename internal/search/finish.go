package search

import (
	"container/heap"
	"context"
	"fmt"

	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/condition"
	"github.com/aretw0/artisan/pkg/domain"
)

// FinishOnly finds the shortest macro that completes the process, ignoring
// quality. Ties are broken by CP spent.
type FinishOnly struct{}

func (FinishOnly) Name() string { return "finish_only" }

func (f FinishOnly) Run(ctx context.Context, s *Session) error {
	sol, err := Finish(ctx, s)
	if err != nil {
		return err
	}
	s.Offer(sol.Macro, sol.State)
	return nil
}

// FinishStateLimit caps the states Finish remembers. Past it Finish gives up
// without a verdict instead of growing without bound.
const FinishStateLimit = 1 << 21

// Finish runs a best-first search over progress-relevant actions. It returns
// domain.ErrRecipeInfeasible when no action order reaches the progress target
// and ErrHalted when stopped or out of memory budget first. The result is not
// offered to the session.
func Finish(ctx context.Context, s *Session) (Solution, error) {
	defer s.Watch(ctx)()

	var actions []domain.ActionID
	for _, id := range s.Actions {
		if progressRelevant(s.Sim.Action(id)) {
			actions = append(actions, id)
		}
	}

	st := s.Sim.Initial()
	target := uint32(s.Sim.Settings().ProgressTarget)
	maxGain := maxProgressGain(s, actions)
	if maxGain == 0 {
		return Solution{}, fmt.Errorf("%w: no action adds progress", domain.ErrRecipeInfeasible)
	}
	h := func(st domain.State) int {
		if st.Progress >= target {
			return 0
		}
		return int((target - st.Progress + maxGain - 1) / maxGain)
	}
	maxCP := s.Sim.Settings().MaxCP

	arena := &Arena{}
	closed := make(map[domain.Fingerprint]struct{})
	open := &finishQueue{}
	heap.Push(open, finishItem{st: st, idx: Sentinel, f: h(st), spent: 0})

	for open.Len() > 0 {
		if !s.expand() {
			return Solution{}, ErrHalted
		}
		it := heap.Pop(open).(finishItem)
		if it.st.Outcome == domain.Completed {
			macro := arena.Path(it.idx)
			return Solution{Macro: macro, State: it.st, Score: s.Sim.Score(it.st, macro)}, nil
		}
		key := finishKey(it.st)
		if _, ok := closed[key]; ok {
			continue
		}
		closed[key] = struct{}{}
		if len(closed) > FinishStateLimit {
			s.Logger.Warn("finish search gave up", "states", len(closed))
			return Solution{}, ErrHalted
		}

		for _, id := range actions {
			child, err := s.Sim.Apply(it.st, id, domain.Roll{})
			if err != nil || child.Outcome == domain.Failed {
				continue
			}
			if child.Outcome != domain.Completed {
				if _, ok := closed[finishKey(child)]; ok {
					continue
				}
			}
			idx := arena.Push(id, it.idx)
			heap.Push(open, finishItem{
				st:    child,
				idx:   idx,
				f:     int(child.Step) + h(child),
				spent: maxCP - int(child.CP),
			})
		}
	}
	return Solution{}, fmt.Errorf("%w: progress target %d unreachable", domain.ErrRecipeInfeasible, target)
}

// progressRelevant excludes actions that only ever serve quality.
func progressRelevant(a *catalog.Action) bool {
	switch {
	case a.Progress > 0:
		return true
	case a.Quality > 0, a.MinInnerQuiet > 0, a.ConsumesInnerQuiet:
		return false
	case a.SingleUse != nil && *a.SingleUse == domain.QuickInnovation:
		return false
	}
	if len(a.Grants) == 0 {
		return true
	}
	for _, g := range a.Grants {
		if g.Effect != domain.Innovation && g.Effect != domain.GreatStrides {
			return true
		}
	}
	return false
}

// maxProgressGain is the most progress any single step can add, used as the
// divisor of a consistent step heuristic.
func maxProgressGain(s *Session, actions []domain.ActionID) uint32 {
	cond := uint64(100)
	for k := condition.Normal; k <= condition.GoodOmen; k++ {
		cond = max(cond, k.ProgressPercent())
	}
	base := uint64(s.Sim.Settings().BaseProgress)
	var best uint64
	for _, id := range actions {
		a := s.Sim.Action(id)
		best = max(best, base*uint64(a.Progress)*250*cond/1_000_000)
	}
	return uint32(min(best, uint64(^uint32(0))))
}

// finishKey drops everything that only matters for quality.
func finishKey(st domain.State) domain.Fingerprint {
	st.Quality = 0
	st.Effects[domain.InnerQuiet] = 0
	st.Effects[domain.Innovation] = 0
	st.Effects[domain.GreatStrides] = 0
	st.Effects[domain.QuickInnovation] = 0
	return st.Fingerprint()
}

type finishItem struct {
	st    domain.State
	idx   uint32
	f     int
	spent int
}

type finishQueue []finishItem

func (q finishQueue) Len() int { return len(q) }
func (q finishQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].spent < q[j].spent
}
func (q finishQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *finishQueue) Push(x any)   { *q = append(*q, x.(finishItem)) }
func (q *finishQueue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

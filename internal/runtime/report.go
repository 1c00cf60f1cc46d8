package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/artisan/internal/search"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/simulator"
)

// reporter turns session callbacks into lifecycle events. Improvements may
// arrive concurrently and out of order; only strictly better ones are
// emitted.
type reporter struct {
	ctx   context.Context
	id    string
	sim   *simulator.Simulator
	hooks domain.LifecycleHooks

	mu       sync.Mutex
	last     uint64
	strategy string
}

func newReporter(ctx context.Context, id string, sim *simulator.Simulator, hooks domain.LifecycleHooks) *reporter {
	return &reporter{ctx: ctx, id: id, sim: sim, hooks: hooks, strategy: StrategyFinishOnly}
}

func (r *reporter) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, SessionID: r.id}
}

func (r *reporter) phase(p domain.Phase, strategy string) {
	if strategy != "" {
		r.mu.Lock()
		r.strategy = strategy
		r.mu.Unlock()
	}
	if r.hooks.OnPhase == nil {
		return
	}
	r.hooks.OnPhase(r.ctx, &domain.PhaseEvent{
		EventBase: r.base(domain.EventPhase),
		Phase:     p,
		Strategy:  strategy,
	})
}

func (r *reporter) improved(sol search.Solution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := sol.Score.Key() + 1
	if k <= r.last {
		return
	}
	r.last = k
	if r.hooks.OnImprovement == nil {
		return
	}
	// Emitting under the lock keeps the event order monotone.
	r.hooks.OnImprovement(r.ctx, &domain.ImprovementEvent{
		EventBase: r.base(domain.EventImprovement),
		Strategy:  r.strategy,
		Macro:     sol.Macro.Clone(),
		Actions:   r.sim.Catalog().Names(sol.Macro),
		Score:     sol.Score,
	})
}

func (r *reporter) progress(sess *search.Session, strategy string) {
	if r.hooks.OnProgress == nil {
		return
	}
	stats := sess.Stats()
	best, _ := sess.Best.Score()
	r.hooks.OnProgress(r.ctx, &domain.ProgressEvent{
		EventBase:   r.base(domain.EventProgress),
		Strategy:    strategy,
		Nodes:       stats.Nodes,
		Pruned:      stats.Pruned,
		Generations: stats.Generations,
		Best:        best,
		Elapsed:     stats.Elapsed,
	})
}

func (r *reporter) finish(res *domain.Result, err error) {
	r.phase(domain.PhaseDone, "")
	if r.hooks.OnFinish == nil {
		return
	}
	e := &domain.FinishEvent{EventBase: r.base(domain.EventFinish), Result: res}
	if err != nil {
		e.Err = err.Error()
	}
	r.hooks.OnFinish(r.ctx, e)
}

// result snapshots the incumbent.
func (r *reporter) result(sess *search.Session, strategy string, feasible, cancelled bool) domain.Result {
	res := domain.Result{
		SessionID: r.id,
		Strategy:  strategy,
		Feasible:  feasible,
		Optimal:   sess.Optimal() && !cancelled,
		Cancelled: cancelled,
		Stats:     sess.Stats(),
		State:     r.sim.Initial(),
	}
	if sol, ok := sess.Best.Solution(); ok {
		res.Found = true
		res.Macro = sol.Macro
		res.Actions = r.sim.Catalog().Names(sol.Macro)
		res.State = sol.State
		res.Score = sol.Score
	}
	return res
}

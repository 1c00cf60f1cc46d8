// Package bound computes admissible upper bounds on the final quality a
// process can still reach.
//
// The estimate never undershoots the best quality of any completing
// continuation that uses the given actions under baseline rolls. It relaxes
// the problem in two ways:
//
//   - Step budget, CP ceiling and quality ceiling are ignored while gains are
//     accumulated.
//   - When the action set can restore durability, durability stops being
//     tracked. Current durability, remaining Manipulation and Waste Not turns
//     and an unused Trained Perfection are refunded into CP at the cheapest
//     price the catalog sells durability for. Every remaining action then
//     pays its durability cost in CP. This is the priced mode; without a
//     restoration source durability is kept exactly.
//
// Gains are explored as memoized Pareto fronts of (progress, quality) per
// reduced state, so the bound for a state is the best quality among front
// points that cover the missing progress.
package bound

import (
	"slices"

	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/condition"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/simulator"
)

// Estimator computes bounds for one search session. It is safe for
// concurrent use.
type Estimator struct {
	sim     *simulator.Simulator
	relaxed *simulator.Simulator
	actions []domain.ActionID
	dp      []domain.ActionID
	memo    *memo

	capP   uint32
	capQ   uint32
	maxDur int32

	priced      bool
	unit        int64
	price       int64
	hasWasteNot bool
	wnTurnPrice int64
	hasTrained  bool
	maxDurCost  int64
}

// New prepares an estimator over the given action set.
func New(sim *simulator.Simulator, actions []domain.ActionID) *Estimator {
	s := sim.Settings()
	e := &Estimator{
		sim:     sim,
		relaxed: sim.Relaxed(),
		actions: slices.Clone(actions),
		memo:    newMemo(),
		capP:    uint32(s.ProgressTarget),
		capQ:    uint32(s.QualityTarget),
		maxDur:  int32(s.MaxDurability),
	}
	e.configure()
	return e
}

// Priced reports whether durability is priced into CP.
func (e *Estimator) Priced() bool { return e.priced }

// Size is the number of memoized reduced states.
func (e *Estimator) Size() int { return e.memo.len() }

func (e *Estimator) configure() {
	unit := int64(0)
	var sources []*catalog.Action
	pure := true
	for _, id := range e.actions {
		a := e.sim.Action(id)
		if len(a.ForbidsCombo) > 0 || !improvingLinks(a) {
			pure = false
		}
		if a.RestoresDurability() || a.SparesDurability() {
			sources = append(sources, a)
			pure = pure && durabilityOnly(a)
			if a.Restore > 0 {
				unit = gcd(unit, int64(a.Restore))
			}
			if _, ok := a.GrantTurns(domain.Manipulation); ok {
				unit = gcd(unit, 5)
			}
			continue
		}
		e.dp = append(e.dp, id)
		if a.Durability > 0 {
			unit = gcd(unit, int64(a.Durability))
			e.maxDurCost = max(e.maxDurCost, int64(a.Durability))
		}
	}
	if unit == 0 {
		unit = 1
	}

	price := int64(-1)
	offer := func(p int64) {
		if price < 0 || p < price {
			price = p
		}
	}
	for _, a := range sources {
		cp := int64(a.MinCPCost())
		if a.Restore > 0 {
			offer(cp * unit / int64(a.Restore))
		}
		if a.RestoreFull && e.maxDur > 1 {
			offer(cp * unit / int64(e.maxDur-1))
		}
		if t, ok := a.GrantTurns(domain.Manipulation); ok {
			offer(cp * unit / int64(t*5))
		}
		if t, ok := a.GrantTurns(domain.WasteNot); ok {
			turn := cp / int64(t)
			if !e.hasWasteNot || turn < e.wnTurnPrice {
				e.wnTurnPrice = turn
			}
			e.hasWasteNot = true
		}
		if a.SingleUse != nil && *a.SingleUse == domain.TrainedPerfection {
			e.hasTrained = true
		}
	}

	if !pure || price < 1 {
		e.dp = slices.Clone(e.actions)
		e.hasWasteNot, e.hasTrained, e.wnTurnPrice = false, false, 0
		return
	}
	e.priced = true
	e.unit = unit
	e.price = price
}

// durabilityOnly reports whether removing a from a sequence can only lose
// durability effects, never gains or combo tokens.
func durabilityOnly(a *catalog.Action) bool {
	if a.Progress > 0 || a.Quality > 0 || a.InnerQuiet > 0 || a.ConsumesInnerQuiet {
		return false
	}
	if a.SetsCombo != domain.ComboNone || len(a.Combo) > 0 {
		return false
	}
	for _, g := range a.Grants {
		if g.Effect != domain.Manipulation && g.Effect != domain.WasteNot {
			return false
		}
	}
	return a.SingleUse == nil || *a.SingleUse == domain.TrainedPerfection
}

// improvingLinks reports whether every combo link is at least as good as the
// plain action, so reaching a link through a shortened sequence never hurts.
func improvingLinks(a *catalog.Action) bool {
	for _, l := range a.Combo {
		if l.CP != nil && *l.CP > a.CP {
			return false
		}
		if l.InnerQuiet != nil && *l.InnerQuiet < a.InnerQuiet {
			return false
		}
	}
	return true
}

// Estimate returns an upper bound on the final quality reachable from st
// while completing the process, or false when completion is impossible even
// in the relaxation.
func (e *Estimator) Estimate(st domain.State) (uint32, bool) {
	switch st.Outcome {
	case domain.Completed:
		return st.Quality, true
	case domain.Failed:
		return 0, false
	}
	if st.Condition != condition.Normal {
		return e.expand(st)
	}

	var f Front
	if e.priced {
		f = e.front(e.pricedRoot(st), nil)
	} else {
		f = e.front(reduce(st), nil)
	}
	missing := e.capP - min(st.Progress, e.capP)
	gain, ok := f.Query(missing)
	if !ok {
		return 0, false
	}
	return clampAdd(st.Quality, gain, e.capQ), true
}

// expand steps through non-Normal conditions exactly. Under baseline rolls
// every condition chain settles on Normal within a few steps.
func (e *Estimator) expand(st domain.State) (uint32, bool) {
	best, found := uint32(0), false
	for _, id := range e.actions {
		child, err := e.sim.Apply(st, id, domain.Roll{})
		if err != nil {
			continue
		}
		q, ok := e.Estimate(child)
		if ok && (!found || q > best) {
			best, found = q, true
		}
	}
	return best, found
}

// reduce strips the fields gains do not depend on.
func reduce(st domain.State) domain.State {
	st.Progress = 0
	st.Quality = 0
	st.Step = 0
	st.Outcome = domain.Ongoing
	return st
}

// pricedRoot folds durability and durability effects into the CP budget.
func (e *Estimator) pricedRoot(st domain.State) domain.State {
	credit := int64(max(st.Durability, 0)) + 5*int64(st.Effects[domain.Manipulation])
	tp := st.Effects[domain.TrainedPerfection]
	if tp == domain.Active || (tp == domain.Available && e.hasTrained) {
		credit += e.maxDurCost
	}
	budget := int64(st.CP)
	wn := int64(st.Effects[domain.WasteNot])
	if e.hasWasteNot {
		budget += wn * e.wnTurnPrice
	} else {
		credit += wn * (e.maxDurCost / 2)
	}
	budget += ceilDiv(credit, e.unit) * e.price
	return e.pricedState(st, budget)
}

func (e *Estimator) pricedState(st domain.State, budget int64) domain.State {
	st = reduce(st)
	st.CP = int32(budget)
	st.Durability = e.maxDur
	st.Effects[domain.WasteNot] = 0
	st.Effects[domain.Manipulation] = 0
	st.Effects[domain.TrainedPerfection] = domain.Spent
	return st
}

// charge is the CP price of one action with its durability cost included.
func (e *Estimator) charge(cp, dur int64) int64 {
	full := cp + dur/e.unit*e.price
	if !e.hasWasteNot {
		return full
	}
	halved := cp + ((dur+1)/2)/e.unit*e.price + e.wnTurnPrice
	return min(full, halved)
}

// front returns the Pareto front of gains reachable from the reduced state.
// visiting guards against cycles; a state revisited on the current path gets
// the trivially admissible front at the caps.
func (e *Estimator) front(key domain.State, visiting map[domain.State]struct{}) Front {
	if f, ok := e.memo.get(key); ok {
		return f
	}
	if _, ok := visiting[key]; ok {
		return Front{{P: e.capP, Q: e.capQ}}
	}
	if visiting == nil {
		visiting = make(map[domain.State]struct{})
	}
	visiting[key] = struct{}{}
	defer delete(visiting, key)

	pts := []Point{{}}
	for _, id := range e.dp {
		a := e.relaxed.Action(id)
		if e.relaxed.Legal(key, id) != nil {
			continue
		}
		cp := int64(e.relaxed.CPCost(key, a))
		dur := int64(e.relaxed.DurabilityCost(key, a))
		child, _ := e.relaxed.Apply(key, id, domain.Roll{})
		dp := min(child.Progress, e.capP)
		dq := min(child.Quality, e.capQ)

		if dp > 0 {
			pts = append(pts, Point{P: dp, Q: dq})
		}

		if e.priced {
			after := int64(key.CP) - e.charge(cp, dur)
			if after < 0 {
				continue
			}
			pts = appendShifted(pts, e.front(e.pricedState(child, after), visiting), dp, dq, e.capP, e.capQ)
			continue
		}
		if child.Outcome == domain.Ongoing {
			pts = appendShifted(pts, e.front(reduce(child), visiting), dp, dq, e.capP, e.capQ)
		}
	}
	return e.memo.put(key, normalize(pts))
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

package runtime

import (
	"math"

	"github.com/aretw0/artisan/internal/search"
)

// choose picks a strategy from the estimated search space and the time
// budget. Small spaces are searched exhaustively; large ones get the anytime
// population search when the caller bounded the time, and iterative
// deepening otherwise.
func choose(sess *search.Session, fin search.Solution, opts Options) (string, float64) {
	size := spaceSize(sess, fin)
	switch {
	case size <= opts.ExhaustiveLimit:
		return StrategyExhaustive, size
	case opts.TimeBudget > 0:
		return StrategyEvolutionary, size
	default:
		return StrategyDeepening, size
	}
}

// spaceSize estimates log10(branching^depth). The depth is the finishing
// macro plus as many extra steps as the CP left over pays for at the mean
// action cost.
func spaceSize(sess *search.Session, fin search.Solution) float64 {
	branching := len(sess.Actions)
	if branching < 2 {
		return 0
	}
	settings := sess.Sim.Settings()

	total, paid := 0, 0
	for _, id := range sess.Actions {
		if cp := sess.Sim.Action(id).CP; cp > 0 {
			total += cp
			paid++
		}
	}
	mean := 1.0
	if paid > 0 {
		mean = max(1, float64(total)/float64(paid))
	}

	left := settings.MaxCP
	if len(fin.Macro) > 0 {
		left = int(fin.State.CP)
	}
	depth := float64(len(fin.Macro)) + float64(left)/mean
	depth = min(depth, float64(settings.StepBudget()))
	return depth * math.Log10(float64(branching))
}

package search

import (
	"context"
	"math/rand/v2"
	"slices"

	"github.com/aretw0/artisan/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// Evolutionary is the anytime population strategy. It never proves
// optimality; every completed macro it evaluates is offered to the session.
type Evolutionary struct {
	Population int
	// Generations caps the run. Zero means run until stopped or stagnant.
	Generations int
	// Stagnation ends the run after this many generations without a better
	// individual. Zero disables it.
	Stagnation int
	Elite      int
	Tournament int
	// MutationPercent is the chance a child is mutated.
	MutationPercent int
	Seed            uint64
}

// DefaultEvolutionary returns the tuning used when the engine picks the strategy.
func DefaultEvolutionary() Evolutionary {
	return Evolutionary{
		Population:      96,
		Generations:     400,
		Stagnation:      60,
		Elite:           4,
		Tournament:      3,
		MutationPercent: 35,
		Seed:            0x5eed,
	}
}

func (Evolutionary) Name() string { return "evolutionary" }

type individual struct {
	macro   domain.Macro
	fitness uint64
}

func (e Evolutionary) withDefaults() Evolutionary {
	d := DefaultEvolutionary()
	if e.Population <= 1 {
		e.Population = d.Population
	}
	if e.Elite <= 0 {
		e.Elite = d.Elite
	}
	e.Elite = min(e.Elite, e.Population-1)
	if e.Tournament <= 0 {
		e.Tournament = d.Tournament
	}
	if e.MutationPercent <= 0 {
		e.MutationPercent = d.MutationPercent
	}
	return e
}

func (e Evolutionary) Run(ctx context.Context, s *Session) error {
	defer s.Watch(ctx)()
	if len(s.Actions) == 0 {
		return nil
	}
	cfg := e.withDefaults()
	maxLen := min(int(s.Sim.Settings().StepBudget()), 40)

	rng := rand.New(rand.NewPCG(cfg.Seed, 0))
	pop := make([]individual, cfg.Population)
	for i := range pop {
		if i < len(s.Seeds) {
			pop[i].macro = s.Seeds[i].Clone()
			continue
		}
		pop[i].macro = randomMacro(rng, s.Actions, 1+rng.IntN(maxLen))
	}
	if err := e.evaluate(ctx, s, pop); err != nil {
		return err
	}

	best := uint64(0)
	stagnant := 0
	for gen := 1; cfg.Generations == 0 || gen <= cfg.Generations; gen++ {
		if s.Stopped() {
			return nil
		}
		slices.SortStableFunc(pop, func(a, b individual) int {
			switch {
			case a.fitness > b.fitness:
				return -1
			case a.fitness < b.fitness:
				return 1
			}
			return 0
		})
		if pop[0].fitness > best {
			best, stagnant = pop[0].fitness, 0
		} else if stagnant++; cfg.Stagnation > 0 && stagnant >= cfg.Stagnation {
			s.Logger.Debug("population stagnant", "generation", gen, "fitness", best)
			return nil
		}

		next := make([]individual, cfg.Population)
		for i := range cfg.Elite {
			next[i] = individual{macro: pop[i].macro.Clone(), fitness: pop[i].fitness}
		}
		if err := e.breed(ctx, s, cfg, gen, pop, next[cfg.Elite:], maxLen); err != nil {
			return err
		}
		if err := e.evaluate(ctx, s, next[cfg.Elite:]); err != nil {
			return err
		}
		pop = next
		s.generations.Add(1)
	}
	return nil
}

// ranges splits n items into one contiguous range per worker.
func (e Evolutionary) ranges(s *Session, n int) [][2]int {
	w := max(1, min(s.Workers, n))
	out := make([][2]int, 0, w)
	for i := range w {
		out = append(out, [2]int{i * n / w, (i + 1) * n / w})
	}
	return out
}

func (e Evolutionary) breed(ctx context.Context, s *Session, cfg Evolutionary, gen int, pop, out []individual, maxLen int) error {
	g, _ := errgroup.WithContext(ctx)
	for w, r := range e.ranges(s, len(out)) {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(gen)<<16|uint64(w)))
			for i := r[0]; i < r[1]; i++ {
				a := tournament(rng, pop, cfg.Tournament)
				b := tournament(rng, pop, cfg.Tournament)
				child := crossover(rng, a.macro, b.macro, maxLen)
				if rng.IntN(100) < cfg.MutationPercent {
					child = mutate(rng, child, s.Actions, maxLen)
				}
				if len(child) == 0 {
					child = randomMacro(rng, s.Actions, 1)
				}
				out[i] = individual{macro: child}
			}
			return nil
		})
	}
	return g.Wait()
}

func (e Evolutionary) evaluate(ctx context.Context, s *Session, pop []individual) error {
	g, _ := errgroup.WithContext(ctx)
	for _, r := range e.ranges(s, len(pop)) {
		g.Go(func() error {
			for i := r[0]; i < r[1]; i++ {
				if !s.expand() {
					return nil
				}
				macro, st := s.develop(pop[i].macro)
				pop[i].macro = macro
				pop[i].fitness = s.fitness(macro, st)
				s.Offer(macro, st)
			}
			return nil
		})
	}
	return g.Wait()
}

// develop replays macro up to its first illegal action or terminal state,
// then greedily appends progress actions until the process ends.
func (s *Session) develop(macro domain.Macro) (domain.Macro, domain.State) {
	st := s.Sim.Initial()
	out := make(domain.Macro, 0, len(macro))
	for _, id := range macro {
		if st.Terminal() {
			break
		}
		next, err := s.Sim.Apply(st, id, domain.Roll{})
		if err != nil {
			break
		}
		st = next
		out = append(out, id)
	}

	for !st.Terminal() {
		pick, ok := s.greedyStep(st)
		if !ok {
			break
		}
		st, _ = s.Sim.Apply(st, pick, domain.Roll{})
		out = append(out, pick)
	}
	return out, st
}

// greedyStep prefers an action that completes the process, then the one
// adding the most progress without breaking it.
func (s *Session) greedyStep(st domain.State) (domain.ActionID, bool) {
	var (
		pick  domain.ActionID
		gain  uint32
		found bool
	)
	for _, id := range s.Actions {
		if s.Sim.Action(id).Progress == 0 {
			continue
		}
		next, err := s.Sim.Apply(st, id, domain.Roll{})
		if err != nil {
			continue
		}
		if next.Outcome == domain.Completed {
			return id, true
		}
		if next.Outcome == domain.Failed {
			continue
		}
		if d := next.Progress - st.Progress; !found || d > gain {
			pick, gain, found = id, d, true
		}
	}
	return pick, found
}

// fitness ranks completed macros by score above every incomplete one, and
// incomplete ones by progress then quality.
func (s *Session) fitness(macro domain.Macro, st domain.State) uint64 {
	if st.Outcome == domain.Completed {
		return 1<<62 | s.Sim.Score(st, macro).Key()
	}
	target := uint64(s.Sim.Settings().ProgressTarget)
	permille := uint64(st.Progress) * 1000 / target
	return permille<<33 | uint64(st.Quality)
}

func randomMacro(rng *rand.Rand, actions []domain.ActionID, n int) domain.Macro {
	m := make(domain.Macro, n)
	for i := range m {
		m[i] = actions[rng.IntN(len(actions))]
	}
	return m
}

func tournament(rng *rand.Rand, pop []individual, k int) individual {
	best := pop[rng.IntN(len(pop))]
	for range k - 1 {
		if c := pop[rng.IntN(len(pop))]; c.fitness > best.fitness {
			best = c
		}
	}
	return best
}

// crossover splices a prefix of a onto a suffix of b.
func crossover(rng *rand.Rand, a, b domain.Macro, maxLen int) domain.Macro {
	i := rng.IntN(len(a) + 1)
	j := rng.IntN(len(b) + 1)
	child := make(domain.Macro, 0, i+len(b)-j)
	child = append(child, a[:i]...)
	child = append(child, b[j:]...)
	if len(child) > maxLen {
		child = child[:maxLen]
	}
	return child
}

// mutate replaces, inserts or removes one action.
func mutate(rng *rand.Rand, m domain.Macro, actions []domain.ActionID, maxLen int) domain.Macro {
	a := actions[rng.IntN(len(actions))]
	if len(m) == 0 {
		return domain.Macro{a}
	}
	i := rng.IntN(len(m))
	switch op := rng.IntN(3); {
	case op == 0:
		m[i] = a
	case op == 1 && len(m) < maxLen:
		m = slices.Insert(m, i, a)
	case len(m) > 1:
		m = slices.Delete(m, i, i+1)
	default:
		m[i] = a
	}
	return m
}

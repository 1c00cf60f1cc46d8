package bound_test

import (
	"strings"
	"testing"

	"github.com/aretw0/artisan/internal/bound"
	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/condition"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioCatalog = `
name: scenario
actions:
  - name: a
    durability: 10
    progress: 20
  - name: b
    cp: 30
    durability: 10
    quality: 20
`

const restorationCatalog = `
name: restoration
actions:
  - name: synth
    durability: 10
    progress: 100
  - name: touch
    cp: 10
    durability: 10
    quality: 100
    inner_quiet: 1
    sets_combo: basic_touch
  - name: combo_touch
    cp: 20
    durability: 10
    quality: 125
    inner_quiet: 1
    combo:
      - after: basic_touch
        cp: 10
  - name: mend
    cp: 25
    restore: 20
  - name: manip
    cp: 30
    grants:
      - effect: manipulation
        turns: 2
  - name: waste
    cp: 20
    grants:
      - effect: waste_not
        turns: 2
  - name: inno
    cp: 10
    grants:
      - effect: innovation
        turns: 2
`

func newSim(t *testing.T, src string, s domain.Settings) *simulator.Simulator {
	t.Helper()
	c, err := catalog.Load(strings.NewReader(src))
	require.NoError(t, err)
	sim, err := simulator.New(s, c)
	require.NoError(t, err)
	return sim
}

// bruteForce computes the exact best completed quality from every state
// reachable under baseline rolls.
type bruteForce struct {
	sim     *simulator.Simulator
	actions []domain.ActionID
	memo    map[domain.Fingerprint]result
}

type result struct {
	quality uint32
	ok      bool
}

func (b *bruteForce) best(st domain.State) result {
	key := st.Fingerprint()
	if r, ok := b.memo[key]; ok {
		return r
	}
	var out result
	for _, id := range b.actions {
		child, err := b.sim.Apply(st, id, domain.Roll{})
		if err != nil {
			continue
		}
		var r result
		switch child.Outcome {
		case domain.Completed:
			r = result{quality: child.Quality, ok: true}
		case domain.Ongoing:
			r = b.best(child)
		}
		if r.ok && (!out.ok || r.quality > out.quality) {
			out = r
		}
	}
	b.memo[key] = out
	return out
}

func assertSound(t *testing.T, sim *simulator.Simulator) *bound.Estimator {
	t.Helper()
	actions := sim.Allowed().IDs()
	est := bound.New(sim, actions)
	bf := &bruteForce{sim: sim, actions: actions, memo: make(map[domain.Fingerprint]result)}
	bf.best(sim.Initial())
	require.NotEmpty(t, bf.memo)

	for fp, exact := range bf.memo {
		st := domain.State(fp)
		ub, ok := est.Estimate(st)
		if !exact.ok {
			continue
		}
		require.True(t, ok, "bound reports infeasible for a completable state %+v", st)
		require.GreaterOrEqual(t, ub, exact.quality, "bound undershoots at %+v", st)
	}
	return est
}

func TestEstimate_ScenarioExact(t *testing.T) {
	s := domain.Settings{MaxCP: 200, MaxDurability: 60, ProgressTarget: 100, QualityTarget: 100, BaseProgress: 100, BaseQuality: 100}
	sim := newSim(t, scenarioCatalog, s)
	est := assertSound(t, sim)
	assert.False(t, est.Priced())

	ub, ok := est.Estimate(sim.Initial())
	require.True(t, ok)
	assert.Equal(t, uint32(20), ub, "exact durability makes the bound tight here")
}

func TestEstimate_ScenarioInfeasible(t *testing.T) {
	s := domain.Settings{MaxCP: 200, MaxDurability: 40, ProgressTarget: 100, QualityTarget: 100, BaseProgress: 100, BaseQuality: 100}
	sim := newSim(t, scenarioCatalog, s)
	est := bound.New(sim, sim.Allowed().IDs())

	_, ok := est.Estimate(sim.Initial())
	assert.False(t, ok)
}

func TestEstimate_PricedSound(t *testing.T) {
	s := domain.Settings{MaxCP: 80, MaxDurability: 30, ProgressTarget: 200, QualityTarget: 5000, BaseProgress: 100, BaseQuality: 100}
	sim := newSim(t, restorationCatalog, s)
	est := assertSound(t, sim)
	assert.True(t, est.Priced())
	assert.Positive(t, est.Size())
}

func TestEstimate_ConditionsSound(t *testing.T) {
	for _, initial := range []condition.Kind{condition.Good, condition.Excellent, condition.Pliant, condition.Sturdy} {
		t.Run(initial.String(), func(t *testing.T) {
			s := domain.Settings{
				MaxCP: 80, MaxDurability: 30, ProgressTarget: 200, QualityTarget: 5000,
				BaseProgress: 100, BaseQuality: 100,
				Tier: condition.Expert1, InitialCondition: initial,
			}
			assertSound(t, newSim(t, restorationCatalog, s))
		})
	}
}

func TestEstimate_QualityCeiling(t *testing.T) {
	s := domain.Settings{MaxCP: 80, MaxDurability: 30, ProgressTarget: 200, QualityTarget: 150, BaseProgress: 100, BaseQuality: 100}
	sim := newSim(t, restorationCatalog, s)
	est := bound.New(sim, sim.Allowed().IDs())

	ub, ok := est.Estimate(sim.Initial())
	require.True(t, ok)
	assert.LessOrEqual(t, ub, uint32(150))
}

func TestEstimate_Terminal(t *testing.T) {
	s := domain.Settings{MaxCP: 200, MaxDurability: 60, ProgressTarget: 100, QualityTarget: 100, BaseProgress: 100, BaseQuality: 100}
	sim := newSim(t, scenarioCatalog, s)
	est := bound.New(sim, sim.Allowed().IDs())

	done := domain.State{Progress: 100, Quality: 40, Outcome: domain.Completed}
	ub, ok := est.Estimate(done)
	assert.True(t, ok)
	assert.Equal(t, uint32(40), ub)

	_, ok = est.Estimate(domain.State{Outcome: domain.Failed})
	assert.False(t, ok)
}

func TestEstimate_DefaultCatalogPriced(t *testing.T) {
	s := domain.Settings{
		MaxCP: 60, MaxDurability: 40, ProgressTarget: 300, QualityTarget: 1000,
		BaseProgress: 100, BaseQuality: 100, JobLevel: 70,
	}
	sim, err := simulator.New(s, catalog.Default())
	require.NoError(t, err)

	var actions []domain.ActionID
	for _, id := range sim.Allowed().IDs() {
		if !sim.Action(id).Probabilistic() {
			actions = append(actions, id)
		}
	}
	est := bound.New(sim, actions)
	assert.True(t, est.Priced())

	ub, ok := est.Estimate(sim.Initial())
	require.True(t, ok)
	assert.LessOrEqual(t, ub, uint32(1000))
}

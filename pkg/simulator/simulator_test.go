package simulator_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/condition"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/simulator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultSettings() domain.Settings {
	return domain.Settings{
		MaxCP:          500,
		MaxDurability:  80,
		ProgressTarget: 3000,
		QualityTarget:  10000,
		BaseProgress:   100,
		BaseQuality:    100,
		Tier:           condition.Standard,
	}
}

func newSim(t *testing.T, mutate func(*domain.Settings)) *simulator.Simulator {
	t.Helper()
	s := defaultSettings()
	if mutate != nil {
		mutate(&s)
	}
	sim, err := simulator.New(s, catalog.Default())
	require.NoError(t, err)
	return sim
}

func id(t *testing.T, sim *simulator.Simulator, name string) domain.ActionID {
	t.Helper()
	id, err := sim.Catalog().Lookup(name)
	require.NoError(t, err)
	return id
}

// run applies the named actions with baseline rolls.
func run(t *testing.T, sim *simulator.Simulator, names ...string) domain.State {
	t.Helper()
	st := sim.Initial()
	for _, n := range names {
		next, err := sim.Apply(st, id(t, sim, n), domain.Roll{})
		require.NoError(t, err, n)
		st = next
	}
	return st
}

func apply(t *testing.T, sim *simulator.Simulator, st domain.State, name string, roll domain.Roll) domain.State {
	t.Helper()
	next, err := sim.Apply(st, id(t, sim, name), roll)
	require.NoError(t, err, name)
	return next
}

func TestInitial(t *testing.T) {
	sim := newSim(t, func(s *domain.Settings) { s.InitialQuality = 40 })
	st := sim.Initial()
	assert.Equal(t, int32(80), st.Durability)
	assert.Equal(t, int32(500), st.CP)
	assert.Equal(t, uint32(40), st.Quality)
	assert.Equal(t, domain.ComboSynthesisBegin, st.Combo)
	assert.Equal(t, condition.Normal, st.Condition)
	assert.Equal(t, domain.Ongoing, st.Outcome)
}

func TestNew_RejectsInvalidSettings(t *testing.T) {
	s := defaultSettings()
	s.ProgressTarget = 0
	_, err := simulator.New(s, catalog.Default())
	assert.True(t, errors.Is(err, domain.ErrInvalidSettings))
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name     string
		actions  []string
		progress uint32
	}{
		{"basic synthesis", []string{"basic_synthesis"}, 120},
		{"muscle memory", []string{"muscle_memory"}, 300},
		{"muscle memory doubles next progress", []string{"muscle_memory", "basic_synthesis"}, 300 + 240},
		{"muscle memory is consumed", []string{"muscle_memory", "basic_synthesis", "basic_synthesis"}, 300 + 240 + 120},
		{"veneration", []string{"veneration", "basic_synthesis"}, 180},
		{"veneration and muscle memory stack", []string{"muscle_memory", "veneration", "careful_synthesis"}, 300 + 180*250/100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newSim(t, nil)
			st := run(t, sim, tt.actions...)
			assert.Equal(t, tt.progress, st.Progress)
		})
	}
}

func TestQuality(t *testing.T) {
	tests := []struct {
		name    string
		actions []string
		quality uint32
		iq      uint8
	}{
		{"basic touch", []string{"basic_touch"}, 100, 1},
		{"inner quiet adds ten percent per stack", []string{"basic_touch", "basic_touch"}, 100 + 110, 2},
		{"great strides doubles", []string{"great_strides", "basic_touch"}, 200, 1},
		{"innovation", []string{"innovation", "basic_touch"}, 150, 1},
		{"byregot consumes stacks", []string{"basic_touch", "byregots_blessing"}, 100 + 132, 0},
		{"refined touch combo grants two stacks", []string{"basic_touch", "refined_touch"}, 100 + 110, 3},
		{"reflect", []string{"reflect"}, 300, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newSim(t, nil)
			st := run(t, sim, tt.actions...)
			assert.Equal(t, tt.quality, st.Quality)
			assert.Equal(t, tt.iq, st.Effects[domain.InnerQuiet])
		})
	}
}

func TestQualityClamp(t *testing.T) {
	sim := newSim(t, func(s *domain.Settings) { s.QualityTarget = 50 })
	st := run(t, sim, "basic_touch")
	assert.Equal(t, uint32(50), st.Quality)
}

func TestGreatStridesConsumed(t *testing.T) {
	sim := newSim(t, nil)
	st := run(t, sim, "great_strides")
	assert.Equal(t, uint8(3), st.Effects[domain.GreatStrides])
	st = apply(t, sim, st, "basic_touch", domain.Roll{})
	assert.Equal(t, uint8(0), st.Effects[domain.GreatStrides])
}

func TestComboCosts(t *testing.T) {
	sim := newSim(t, nil)
	st := run(t, sim, "basic_touch", "standard_touch")
	assert.Equal(t, int32(500-18-18), st.CP)
	assert.Equal(t, domain.ComboStandardTouch, st.Combo)

	st = apply(t, sim, st, "advanced_touch", domain.Roll{})
	assert.Equal(t, int32(500-18-18-18), st.CP)
	assert.Equal(t, domain.ComboNone, st.Combo)

	plain := run(t, sim, "standard_touch")
	assert.Equal(t, int32(500-32), plain.CP)
	assert.Equal(t, domain.ComboNone, plain.Combo)

	observed := run(t, sim, "observe", "advanced_touch")
	assert.Equal(t, int32(500-7-18), observed.CP)
}

func TestDurability(t *testing.T) {
	t.Run("waste not halves", func(t *testing.T) {
		sim := newSim(t, nil)
		st := run(t, sim, "waste_not", "basic_synthesis", "preparatory_touch")
		assert.Equal(t, int32(80-5-10), st.Durability)
	})
	t.Run("sturdy halves", func(t *testing.T) {
		sim := newSim(t, func(s *domain.Settings) { s.InitialCondition = condition.Sturdy })
		st := run(t, sim, "basic_synthesis")
		assert.Equal(t, int32(75), st.Durability)
	})
	t.Run("sturdy stacks with waste not", func(t *testing.T) {
		sim := newSim(t, func(s *domain.Settings) { s.InitialCondition = condition.Sturdy })
		st := run(t, sim, "waste_not")
		st = apply(t, sim, st, "basic_synthesis", domain.Roll{})
		assert.Equal(t, int32(75), st.Durability, "sturdy is gone after the first step")

		sturdy := st
		sturdy.Condition = condition.Sturdy
		st = apply(t, sim, sturdy, "preparatory_touch", domain.Roll{})
		assert.Equal(t, int32(75-5), st.Durability)
	})
	t.Run("manipulation restores after the granting step", func(t *testing.T) {
		sim := newSim(t, nil)
		st := run(t, sim, "manipulation")
		assert.Equal(t, int32(80), st.Durability)
		assert.Equal(t, uint8(8), st.Effects[domain.Manipulation])

		st = apply(t, sim, st, "basic_synthesis", domain.Roll{})
		assert.Equal(t, int32(75), st.Durability)
		assert.Equal(t, uint8(7), st.Effects[domain.Manipulation])
	})
	t.Run("manipulation does not restore when broken", func(t *testing.T) {
		sim := newSim(t, func(s *domain.Settings) { s.MaxDurability = 10 })
		st := run(t, sim, "manipulation")
		st = apply(t, sim, st, "basic_synthesis", domain.Roll{})
		assert.Equal(t, int32(0), st.Durability)
		assert.Equal(t, domain.Failed, st.Outcome)
	})
	t.Run("restore is capped", func(t *testing.T) {
		sim := newSim(t, nil)
		st := run(t, sim, "basic_synthesis", "masters_mend")
		assert.Equal(t, int32(80), st.Durability)

		st = run(t, sim, "groundwork", "groundwork", "groundwork", "immaculate_mend")
		assert.Equal(t, int32(80), st.Durability)
	})
	t.Run("trained perfection spares one action", func(t *testing.T) {
		sim := newSim(t, nil)
		st := run(t, sim, "trained_perfection", "observe")
		assert.True(t, st.Effects.Active(domain.TrainedPerfection), "actions without durability cost keep it")

		st = apply(t, sim, st, "groundwork", domain.Roll{})
		assert.Equal(t, int32(80), st.Durability)
		assert.Equal(t, domain.Spent, st.Effects[domain.TrainedPerfection])

		_, err := sim.Apply(st, id(t, sim, "trained_perfection"), domain.Roll{})
		assert.True(t, errors.Is(err, domain.ErrIllegalAction))
	})
	t.Run("groundwork halves under low durability", func(t *testing.T) {
		sim := newSim(t, func(s *domain.Settings) { s.MaxDurability = 15 })
		st := run(t, sim, "groundwork")
		assert.Equal(t, uint32(180), st.Progress)
		assert.Equal(t, int32(-5), st.Durability)
		assert.Equal(t, domain.Failed, st.Outcome)
	})
}

func TestConditions(t *testing.T) {
	t.Run("good boosts quality", func(t *testing.T) {
		sim := newSim(t, func(s *domain.Settings) { s.InitialCondition = condition.Good })
		st := run(t, sim, "basic_touch")
		assert.Equal(t, uint32(150), st.Quality)
		assert.Equal(t, condition.Normal, st.Condition, "standard tier returns to normal after good")
	})
	t.Run("pliant halves cp", func(t *testing.T) {
		sim := newSim(t, func(s *domain.Settings) { s.InitialCondition = condition.Pliant })
		st := run(t, sim, "basic_touch")
		assert.Equal(t, int32(500-9), st.CP)
	})
	t.Run("malleable boosts progress", func(t *testing.T) {
		sim := newSim(t, func(s *domain.Settings) { s.InitialCondition = condition.Malleable })
		st := run(t, sim, "basic_synthesis")
		assert.Equal(t, uint32(180), st.Progress)
	})
	t.Run("primed extends grants", func(t *testing.T) {
		sim := newSim(t, func(s *domain.Settings) { s.InitialCondition = condition.Primed })
		st := run(t, sim, "veneration")
		assert.Equal(t, uint8(6), st.Effects[domain.Veneration])
	})
	t.Run("roll selects next condition", func(t *testing.T) {
		sim := newSim(t, nil)
		st := apply(t, sim, sim.Initial(), "basic_synthesis", domain.Roll{Condition: 7600})
		assert.Equal(t, condition.Good, st.Condition)
	})
	t.Run("tricks restores cp under good", func(t *testing.T) {
		sim := newSim(t, nil)
		tricks := id(t, sim, "tricks_of_the_trade")

		_, err := sim.Apply(sim.Initial(), tricks, domain.Roll{})
		var illegal *domain.IllegalActionError
		require.True(t, errors.As(err, &illegal))
		assert.Contains(t, illegal.Reason, "requires condition")

		st := apply(t, sim, sim.Initial(), "manipulation", domain.Roll{Condition: 7600})
		require.Equal(t, condition.Good, st.Condition)
		st = apply(t, sim, st, "tricks_of_the_trade", domain.Roll{})
		assert.Equal(t, int32(500-96+20), st.CP)
	})
	t.Run("restored cp is capped", func(t *testing.T) {
		sim := newSim(t, func(s *domain.Settings) { s.InitialCondition = condition.Good })
		st := run(t, sim, "tricks_of_the_trade")
		assert.Equal(t, int32(500), st.CP)
	})
	t.Run("heart and soul bypasses the condition once", func(t *testing.T) {
		sim := newSim(t, nil)
		st := run(t, sim, "heart_and_soul", "precise_touch")
		assert.Equal(t, uint32(150), st.Quality)
		assert.Equal(t, uint8(2), st.Effects[domain.InnerQuiet])
		assert.Equal(t, domain.Spent, st.Effects[domain.HeartAndSoul])

		_, err := sim.Apply(st, id(t, sim, "precise_touch"), domain.Roll{})
		assert.True(t, errors.Is(err, domain.ErrIllegalAction))
	})
	t.Run("heart and soul is kept when the condition already allows", func(t *testing.T) {
		sim := newSim(t, nil)
		st := run(t, sim, "heart_and_soul")
		st.Condition = condition.Good
		st = apply(t, sim, st, "precise_touch", domain.Roll{})
		assert.True(t, st.Effects.Active(domain.HeartAndSoul))
	})
}

func TestProbabilistic(t *testing.T) {
	sim := newSim(t, nil)
	rapid := id(t, sim, "rapid_synthesis")

	ok, err := sim.Apply(sim.Initial(), rapid, domain.Roll{Outcome: 4999})
	require.NoError(t, err)
	assert.Equal(t, uint32(500), ok.Progress)

	failed, err := sim.Apply(sim.Initial(), rapid, domain.Roll{Outcome: 5000})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), failed.Progress)
	assert.Equal(t, int32(70), failed.Durability, "failure still costs durability")
	assert.Equal(t, uint8(1), failed.Step)

	centered := sim.Initial()
	centered.Condition = condition.Centered
	st, err := sim.Apply(centered, rapid, domain.Roll{Outcome: 7000})
	require.NoError(t, err)
	assert.Equal(t, uint32(500), st.Progress, "centered adds 25 points of success rate")

	st = run(t, sim, "great_strides")
	st, err = sim.Apply(st, id(t, sim, "hasty_touch"), domain.Roll{Outcome: 9999})
	require.NoError(t, err)
	assert.True(t, st.Effects.Active(domain.GreatStrides), "a failed touch keeps great strides")
	assert.Equal(t, uint8(0), st.Effects[domain.InnerQuiet])
}

func TestLegality(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Settings)
		prefix []string
		action string
		reason string
	}{
		{"first step only", nil, []string{"basic_synthesis"}, "muscle_memory", "first step"},
		{"needs inner quiet", nil, nil, "byregots_blessing", "inner_quiet"},
		{"trained finesse needs ten stacks", nil, []string{"basic_touch"}, "trained_finesse", "10 inner_quiet"},
		{"prudent under waste not", nil, []string{"waste_not"}, "prudent_touch", "waste_not"},
		{"quick innovation under innovation", nil, []string{"innovation"}, "quick_innovation", "innovation inactive"},
		{"not enough cp", func(s *domain.Settings) { s.MaxCP = 10 }, nil, "basic_touch", "CP"},
		{"step limit", func(s *domain.Settings) { s.MaxSteps = 1 }, []string{"basic_synthesis"}, "basic_synthesis", "step limit"},
		{"above job level", func(s *domain.Settings) { s.JobLevel = 20 }, nil, "manipulation", "not available"},
		{"single use", nil, []string{"heart_and_soul"}, "heart_and_soul", "already used"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newSim(t, tt.mutate)
			st := run(t, sim, tt.prefix...)
			before := st

			next, err := sim.Apply(st, id(t, sim, tt.action), domain.Roll{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrIllegalAction))
			assert.Contains(t, err.Error(), tt.reason)
			assert.Equal(t, before, next, "a rejected action leaves the state untouched")
		})
	}
}

func TestAllowedMask(t *testing.T) {
	c := catalog.Default()
	synth, err := c.Lookup("basic_synthesis")
	require.NoError(t, err)
	touch, err := c.Lookup("basic_touch")
	require.NoError(t, err)

	s := defaultSettings()
	s.Allowed = domain.MaskOf(synth)
	sim, err := simulator.New(s, c)
	require.NoError(t, err)

	assert.Equal(t, domain.MaskOf(synth), sim.Allowed())
	_, err = sim.Apply(sim.Initial(), touch, domain.Roll{})
	assert.ErrorContains(t, err, "not available")
}

func TestJobLevelResolvesUpgrades(t *testing.T) {
	sim := newSim(t, func(s *domain.Settings) { s.JobLevel = 20 })
	st := run(t, sim, "basic_synthesis")
	assert.Equal(t, uint32(100), st.Progress)
	assert.Equal(t, 20, sim.Catalog().Level())
}

func TestTerminalStates(t *testing.T) {
	sim := newSim(t, func(s *domain.Settings) { s.ProgressTarget = 100 })
	st := run(t, sim, "basic_synthesis")
	assert.Equal(t, domain.Completed, st.Outcome)
	assert.Equal(t, uint32(100), st.Progress, "progress is capped at the target")

	_, err := sim.Apply(st, id(t, sim, "basic_touch"), domain.Roll{})
	assert.True(t, errors.Is(err, domain.ErrIllegalAction))
	assert.True(t, errors.Is(err, domain.ErrTerminalState))
}

func TestCompletionWinsOverBreaking(t *testing.T) {
	sim := newSim(t, func(s *domain.Settings) {
		s.ProgressTarget = 200
		s.MaxDurability = 20
	})
	st := run(t, sim, "basic_synthesis", "basic_synthesis")
	assert.Equal(t, int32(0), st.Durability)
	assert.Equal(t, domain.Completed, st.Outcome)
}

const tinyCatalog = `
name: tiny
actions:
  - name: a
    durability: 10
    progress: 20
  - name: b
    cp: 30
    durability: 10
    quality: 20
`

func TestTinyCatalog(t *testing.T) {
	c, err := catalog.Load(strings.NewReader(tinyCatalog))
	require.NoError(t, err)
	sim, err := simulator.New(domain.Settings{
		MaxCP:          200,
		MaxDurability:  40,
		ProgressTarget: 100,
		QualityTarget:  100,
		BaseProgress:   100,
		BaseQuality:    100,
	}, c)
	require.NoError(t, err)

	st, err := sim.Replay(domain.Macro{0, 0, 0, 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(80), st.Progress)
	assert.Equal(t, domain.Failed, st.Outcome)

	_, err = sim.Replay(domain.Macro{0, 0, 0, 0, 0}, nil)
	assert.ErrorContains(t, err, "step 5")
	assert.True(t, errors.Is(err, domain.ErrTerminalState))

	st, err = sim.Replay(domain.Macro{1, 1, 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(40), st.Quality)
	assert.Equal(t, int32(140), st.CP)
}

func TestDeterminism(t *testing.T) {
	sim := newSim(t, func(s *domain.Settings) { s.Tier = condition.Expert2 })
	sampler := condition.NewSampler(7)
	allowed := sim.Allowed().IDs()

	st := sim.Initial()
	for i := 0; i < 200 && !st.Terminal(); i++ {
		action := allowed[i*7%len(allowed)]
		roll := domain.Roll{Outcome: uint16(i * 37 % 10000), Condition: sampler.Roll()}

		a, errA := sim.Apply(st, action, roll)
		b, errB := sim.Apply(st, action, roll)
		assert.Equal(t, a, b)
		assert.Equal(t, errA == nil, errB == nil)
		if errA == nil {
			st = a
		}
	}
}

func TestReplayMatchesTrace(t *testing.T) {
	sim := newSim(t, func(s *domain.Settings) { s.Tier = condition.Expert1 })
	macro, err := sim.Catalog().ParseMacro([]string{
		"muscle_memory", "manipulation", "veneration", "waste_not_ii", "groundwork",
		"innovation", "preparatory_touch", "basic_touch", "standard_touch", "advanced_touch",
		"great_strides", "byregots_blessing", "careful_synthesis",
	})
	require.NoError(t, err)
	rolls := make([]domain.Roll, len(macro))
	for i := range rolls {
		rolls[i] = domain.Roll{Condition: condition.Roll(i * 811 % condition.RollRange)}
	}

	trace, err := sim.Trace(macro, rolls)
	require.NoError(t, err)
	require.Len(t, trace, len(macro)+1)
	final, err := sim.Replay(macro, rolls)
	require.NoError(t, err)
	assert.Equal(t, final, trace[len(trace)-1].State)
	assert.Equal(t, "careful_synthesis", trace[len(trace)-1].Name)

	again, err := sim.Replay(macro, rolls)
	require.NoError(t, err)
	assert.Equal(t, final, again)
}

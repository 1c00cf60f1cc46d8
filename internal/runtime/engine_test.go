package runtime_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/artisan/internal/runtime"
	"github.com/aretw0/artisan/internal/search"
	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/domain"
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

func scenario(t *testing.T, durability int) (domain.Settings, *catalog.Catalog) {
	t.Helper()
	c, err := catalog.Load(strings.NewReader(scenarioCatalog))
	require.NoError(t, err)
	return domain.Settings{
		MaxCP: 200, MaxDurability: durability,
		ProgressTarget: 100, QualityTarget: 100,
		BaseProgress: 100, BaseQuality: 100,
	}, c
}

func TestEngine_Solve(t *testing.T) {
	settings, c := scenario(t, 60)
	res, err := runtime.NewEngine().Solve(context.Background(), settings, c, runtime.Options{Workers: 2})
	require.NoError(t, err)

	assert.True(t, res.Feasible)
	assert.True(t, res.Found)
	assert.True(t, res.Optimal)
	assert.False(t, res.Cancelled)
	assert.Equal(t, runtime.StrategyExhaustive, res.Strategy)
	assert.Equal(t, uint32(20), res.Score.Quality)
	assert.Len(t, res.Actions, 6)
	assert.Equal(t, 5, strings.Count(strings.Join(res.Actions, ","), "a"))
	assert.Equal(t, domain.Completed, res.State.Outcome)
	assert.NotEmpty(t, res.SessionID)
	assert.Positive(t, res.Stats.Nodes)
}

func TestEngine_Infeasible(t *testing.T) {
	settings, c := scenario(t, 40)
	var finished *domain.FinishEvent
	engine := runtime.NewEngine(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnFinish: func(_ context.Context, e *domain.FinishEvent) { finished = e },
	}))

	res, err := engine.Solve(context.Background(), settings, c, runtime.Options{})
	require.ErrorIs(t, err, domain.ErrRecipeInfeasible)
	assert.False(t, res.Feasible)
	assert.False(t, res.Found)

	require.NotNil(t, finished)
	assert.Contains(t, finished.Err, "infeasible")
}

func TestEngine_InputErrors(t *testing.T) {
	settings, c := scenario(t, 60)
	engine := runtime.NewEngine()

	bad := settings
	bad.ProgressTarget = 0
	_, err := engine.Solve(context.Background(), bad, c, runtime.Options{})
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)

	_, err = engine.Solve(context.Background(), settings, c, runtime.Options{Strategy: "simulated_annealing"})
	assert.ErrorIs(t, err, domain.ErrUnknownStrategy)
}

func TestEngine_Strategies(t *testing.T) {
	settings, c := scenario(t, 60)
	engine := runtime.NewEngine()
	assert.Equal(t, []string{
		runtime.StrategyAuto,
		runtime.StrategyExhaustive,
		runtime.StrategyEvolutionary,
		runtime.StrategyFinishOnly,
		runtime.StrategyDeepening,
	}, engine.Strategies())

	tests := []struct {
		strategy string
		quality  uint32
		optimal  bool
	}{
		{runtime.StrategyExhaustive, 20, true},
		{runtime.StrategyDeepening, 20, true},
		{runtime.StrategyFinishOnly, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			res, err := engine.Solve(context.Background(), settings, c, runtime.Options{Strategy: tt.strategy})
			require.NoError(t, err)
			assert.Equal(t, tt.strategy, res.Strategy)
			assert.Equal(t, tt.quality, res.Score.Quality)
			assert.Equal(t, tt.optimal, res.Optimal)
		})
	}

	t.Run(runtime.StrategyEvolutionary, func(t *testing.T) {
		res, err := engine.Solve(context.Background(), settings, c, runtime.Options{Strategy: runtime.StrategyEvolutionary})
		require.NoError(t, err)
		assert.True(t, res.Found)
		assert.False(t, res.Optimal)
	})
}

func TestEngine_CustomStrategy(t *testing.T) {
	settings, c := scenario(t, 60)
	engine := runtime.NewEngine(runtime.WithStrategy("finish_twice", func(runtime.Options) search.Strategy {
		return search.FinishOnly{}
	}))
	res, err := engine.Solve(context.Background(), settings, c, runtime.Options{Strategy: "finish_twice"})
	require.NoError(t, err)
	assert.Equal(t, "finish_only", res.Strategy)
	assert.Len(t, res.Macro, 5)
}

func TestEngine_TimeBudgetPicksAnytime(t *testing.T) {
	settings, c := scenario(t, 60)
	res, err := runtime.NewEngine().Solve(context.Background(), settings, c, runtime.Options{
		TimeBudget:      200 * time.Millisecond,
		ExhaustiveLimit: 0.01,
	})
	require.NoError(t, err)
	assert.Equal(t, runtime.StrategyEvolutionary, res.Strategy)
	assert.True(t, res.Found)
	assert.False(t, res.Cancelled, "running out of budget is not a cancellation")
}

func TestEngine_Cancelled(t *testing.T) {
	settings, c := scenario(t, 60)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := runtime.NewEngine().Solve(ctx, settings, c, runtime.Options{})
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.False(t, res.Optimal)
}

func TestEngine_ImprovementsAreMonotone(t *testing.T) {
	settings, c := scenario(t, 60)
	var keys []uint64
	var phases []domain.Phase
	engine := runtime.NewEngine(runtime.WithLifecycleHooks(domain.LifecycleHooks{
		OnImprovement: func(_ context.Context, e *domain.ImprovementEvent) {
			keys = append(keys, e.Score.Key())
		},
		OnPhase: func(_ context.Context, e *domain.PhaseEvent) {
			phases = append(phases, e.Phase)
		},
	}))

	res, err := engine.Solve(context.Background(), settings, c, runtime.Options{Workers: 4})
	require.NoError(t, err)

	require.NotEmpty(t, keys)
	for i := 1; i < len(keys); i++ {
		assert.Greater(t, keys[i], keys[i-1])
	}
	assert.Equal(t, res.Score.Key(), keys[len(keys)-1])
	assert.Equal(t, []domain.Phase{domain.PhaseFeasibility, domain.PhaseSearch, domain.PhaseDone}, phases)
}

func TestEngine_Stream(t *testing.T) {
	settings, c := scenario(t, 60)
	events := runtime.NewEngine().Stream(context.Background(), settings, c, runtime.Options{})

	var (
		improvements int
		last         domain.Event
	)
	for ev := range events {
		if ev.Type == domain.EventImprovement {
			improvements++
		}
		last = ev
	}

	require.Equal(t, domain.EventFinish, last.Type)
	require.NotNil(t, last.Finish.Result)
	assert.Empty(t, last.Finish.Err)
	assert.Equal(t, uint32(20), last.Finish.Result.Score.Quality)
	assert.Positive(t, improvements)
}

func TestEngine_StreamError(t *testing.T) {
	settings, c := scenario(t, 60)
	settings.MaxDurability = 0
	var last domain.Event
	for ev := range runtime.NewEngine().Stream(context.Background(), settings, c, runtime.Options{}) {
		last = ev
	}
	require.Equal(t, domain.EventFinish, last.Type)
	assert.Contains(t, last.Finish.Err, "max_durability")
}

func TestEngine_TimeBudgetCoversFeasibility(t *testing.T) {
	settings := domain.Settings{
		MaxCP: 600, MaxDurability: 80,
		ProgressTarget: 20000, QualityTarget: 10000,
		BaseProgress: 100, BaseQuality: 100,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	res, err := runtime.NewEngine().Solve(ctx, settings, catalog.Default(), runtime.Options{
		TimeBudget: 300 * time.Millisecond,
	})
	elapsed := time.Since(start)

	if err != nil {
		require.ErrorIs(t, err, domain.ErrRecipeInfeasible)
	}
	assert.Less(t, elapsed, 3*time.Second, "the budget bounds the feasibility check too")
	assert.False(t, res.Cancelled, "running out of budget is not a cancellation")
	assert.Equal(t, res.Found, res.Feasible, "feasibility is only claimed once a finishing macro exists")
}

func TestEngine_NodeLimitLeavesFeasibilityUnknown(t *testing.T) {
	settings, c := scenario(t, 60)
	res, err := runtime.NewEngine().Solve(context.Background(), settings, c, runtime.Options{NodeLimit: 1})
	require.NoError(t, err)
	assert.False(t, res.Feasible)
	assert.False(t, res.Found)
	assert.False(t, res.Optimal)
}

func TestEngine_StreamSlowReader(t *testing.T) {
	settings, c := scenario(t, 60)
	events := runtime.NewEngine().Stream(context.Background(), settings, c, runtime.Options{
		Strategy:   runtime.StrategyEvolutionary,
		TimeBudget: 200 * time.Millisecond,
		Workers:    2,
	})

	// Nobody reads while the search runs; it must still stop on budget.
	time.Sleep(1500 * time.Millisecond)

	var last domain.Event
	for ev := range events {
		last = ev
	}
	require.Equal(t, domain.EventFinish, last.Type)
	require.NotNil(t, last.Finish.Result)
	assert.True(t, last.Finish.Result.Found)
	assert.Less(t, last.Finish.Result.Stats.Elapsed, time.Second)
}

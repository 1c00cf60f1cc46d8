package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		name  string
		event domain.FinishEvent
		want  string
	}{
		{"infeasible", domain.FinishEvent{Err: "recipe infeasible", Result: &domain.Result{}}, "infeasible"},
		{"error", domain.FinishEvent{Err: "boom"}, "error"},
		{"not found", domain.FinishEvent{Result: &domain.Result{Feasible: true}}, "not_found"},
		{"cancelled", domain.FinishEvent{Result: &domain.Result{Feasible: true, Found: true, Cancelled: true}}, "cancelled"},
		{"optimal", domain.FinishEvent{Result: &domain.Result{Feasible: true, Found: true, Optimal: true}}, "optimal"},
		{"found", domain.FinishEvent{Result: &domain.Result{Feasible: true, Found: true}}, "found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, observability.Outcome(&tt.event))
		})
	}
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnImprovement(ctx, &domain.ImprovementEvent{Strategy: "branch_and_bound"})
	hooks.OnImprovement(ctx, &domain.ImprovementEvent{Strategy: "branch_and_bound"})
	hooks.OnFinish(ctx, &domain.FinishEvent{Result: &domain.Result{
		Strategy: "branch_and_bound", Feasible: true, Found: true, Optimal: true,
		Stats: domain.Stats{Nodes: 120, Elapsed: 30 * time.Millisecond},
	}})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Improvements.WithLabelValues("branch_and_bound")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Solves.WithLabelValues("branch_and_bound", "optimal")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.Nodes))

	count, err := testutil.GatherAndCount(reg, "artisan_solve_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_ObserveQuality(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	m.ObserveQuality(domain.Result{Found: true, Score: domain.Score{Quality: 50}}, 100)
	m.ObserveQuality(domain.Result{Found: false}, 100)

	count, err := testutil.GatherAndCount(reg, "artisan_solution_quality_ratio")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LogHooks(logger)
	ctx := context.Background()

	hooks.OnPhase(ctx, &domain.PhaseEvent{Phase: domain.PhaseSearch, Strategy: "evolutionary"})
	hooks.OnFinish(ctx, &domain.FinishEvent{Result: &domain.Result{Strategy: "evolutionary", Score: domain.Score{Quality: 42}}})
	hooks.OnFinish(ctx, &domain.FinishEvent{Err: "recipe infeasible"})

	out := buf.String()
	assert.Contains(t, out, "phase=search")
	assert.Contains(t, out, "quality=42")
	assert.Contains(t, out, `error="recipe infeasible"`)
}

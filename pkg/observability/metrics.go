package observability

import (
	"context"

	"github.com/aretw0/artisan/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the solver collectors.
type Metrics struct {
	Solves       *prometheus.CounterVec
	Improvements *prometheus.CounterVec
	Nodes        prometheus.Counter
	Duration     *prometheus.HistogramVec
	Quality      prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "artisan_solves_total",
				Help: "Total number of finished solves",
			},
			[]string{"strategy", "outcome"},
		),
		Improvements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "artisan_improvements_total",
				Help: "Total number of strictly improving macros reported",
			},
			[]string{"strategy"},
		),
		Nodes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "artisan_nodes_expanded_total",
			Help: "Total number of search nodes expanded",
		}),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "artisan_solve_duration_seconds",
				Help:    "Duration of the search phase of a solve",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"strategy"},
		),
		Quality: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "artisan_solution_quality_ratio",
			Help:    "Final quality divided by the quality target",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Solves, m.Improvements, m.Nodes, m.Duration, m.Quality)
	}
	return m
}

// Outcome classifies a finished solve for the outcome label.
func Outcome(e *domain.FinishEvent) string {
	switch {
	case e.Err != "" && e.Result != nil && !e.Result.Feasible:
		return "infeasible"
	case e.Err != "":
		return "error"
	case e.Result == nil || !e.Result.Found:
		return "not_found"
	case e.Result.Cancelled:
		return "cancelled"
	case e.Result.Optimal:
		return "optimal"
	default:
		return "found"
	}
}

// Hooks records every finished solve and improvement.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnImprovement: func(_ context.Context, e *domain.ImprovementEvent) {
			m.Improvements.WithLabelValues(e.Strategy).Inc()
		},
		OnFinish: func(_ context.Context, e *domain.FinishEvent) {
			strategy := ""
			if e.Result != nil {
				strategy = e.Result.Strategy
				m.Nodes.Add(float64(e.Result.Stats.Nodes))
				m.Duration.WithLabelValues(strategy).Observe(e.Result.Stats.Elapsed.Seconds())
			}
			m.Solves.WithLabelValues(strategy, Outcome(e)).Inc()
		},
	}
}

// ObserveQuality records the quality ratio of a result against its target.
func (m *Metrics) ObserveQuality(res domain.Result, target int) {
	if !res.Found || target <= 0 {
		return
	}
	m.Quality.Observe(float64(res.Score.Quality) / float64(target))
}

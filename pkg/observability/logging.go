package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/artisan/pkg/domain"
)

// LogHooks logs phases and improvements at debug level and the final result
// at info level.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhase: func(ctx context.Context, e *domain.PhaseEvent) {
			logger.DebugContext(ctx, "phase", "session", e.SessionID, "phase", e.Phase, "strategy", e.Strategy)
		},
		OnImprovement: func(ctx context.Context, e *domain.ImprovementEvent) {
			logger.DebugContext(ctx, "improvement",
				"session", e.SessionID,
				"strategy", e.Strategy,
				"quality", e.Score.Quality,
				"steps", e.Score.Steps,
			)
		},
		OnProgress: func(ctx context.Context, e *domain.ProgressEvent) {
			logger.DebugContext(ctx, "progress",
				"session", e.SessionID,
				"nodes", e.Nodes,
				"pruned", e.Pruned,
				"generations", e.Generations,
				"elapsed", e.Elapsed,
			)
		},
		OnFinish: func(ctx context.Context, e *domain.FinishEvent) {
			if e.Err != "" {
				logger.WarnContext(ctx, "solve failed", "session", e.SessionID, "error", e.Err)
				return
			}
			if e.Result == nil {
				return
			}
			logger.InfoContext(ctx, "solve finished",
				"session", e.SessionID,
				"strategy", e.Result.Strategy,
				"quality", e.Result.Score.Quality,
				"steps", e.Result.Score.Steps,
				"optimal", e.Result.Optimal,
			)
		},
	}
}

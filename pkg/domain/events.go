package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPhase       EventType = "phase"
	EventImprovement EventType = "improvement"
	EventProgress    EventType = "progress"
	EventFinish      EventType = "finish"
)

// Phase names a stage of a solve.
type Phase string

const (
	PhaseFeasibility Phase = "feasibility"
	PhaseSearch      Phase = "search"
	PhaseDone        Phase = "done"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// PhaseEvent marks the start of a solve stage.
type PhaseEvent struct {
	EventBase
	Phase    Phase  `json:"phase"`
	Strategy string `json:"strategy,omitempty"`
}

// ImprovementEvent carries a strictly better macro than any reported before.
type ImprovementEvent struct {
	EventBase
	Strategy string   `json:"strategy"`
	Macro    Macro    `json:"macro"`
	Actions  []string `json:"actions"`
	Score    Score    `json:"score"`
}

// ProgressEvent is a periodic snapshot of search effort.
type ProgressEvent struct {
	EventBase
	Strategy    string        `json:"strategy"`
	Nodes       uint64        `json:"nodes"`
	Pruned      uint64        `json:"pruned"`
	Generations int           `json:"generations,omitempty"`
	Best        Score         `json:"best"`
	Elapsed     time.Duration `json:"elapsed"`
}

// FinishEvent reports the final result of a solve.
type FinishEvent struct {
	EventBase
	Result *Result `json:"result"`
	Err    string  `json:"error,omitempty"`
}

// Event is the envelope delivered on solve streams.
type Event struct {
	Type        EventType         `json:"type"`
	Phase       *PhaseEvent       `json:"phase,omitempty"`
	Improvement *ImprovementEvent `json:"improvement,omitempty"`
	Progress    *ProgressEvent    `json:"progress,omitempty"`
	Finish      *FinishEvent      `json:"finish,omitempty"`
}

// LifecycleHooks defines callbacks for solver observability.
type LifecycleHooks struct {
	OnPhase       func(context.Context, *PhaseEvent)
	OnImprovement func(context.Context, *ImprovementEvent)
	OnProgress    func(context.Context, *ProgressEvent)
	OnFinish      func(context.Context, *FinishEvent)
}

// CombineHooks fans each callback out to every non-nil hook in order.
func CombineHooks(all ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnPhase: func(ctx context.Context, e *PhaseEvent) {
			for _, h := range all {
				if h.OnPhase != nil {
					h.OnPhase(ctx, e)
				}
			}
		},
		OnImprovement: func(ctx context.Context, e *ImprovementEvent) {
			for _, h := range all {
				if h.OnImprovement != nil {
					h.OnImprovement(ctx, e)
				}
			}
		},
		OnProgress: func(ctx context.Context, e *ProgressEvent) {
			for _, h := range all {
				if h.OnProgress != nil {
					h.OnProgress(ctx, e)
				}
			}
		},
		OnFinish: func(ctx context.Context, e *FinishEvent) {
			for _, h := range all {
				if h.OnFinish != nil {
					h.OnFinish(ctx, e)
				}
			}
		},
	}
}

package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/google/uuid"
)

// Stream runs a solve in the background and delivers its events on the
// returned channel: phase changes, strict improvements, periodic progress
// and exactly one final event carrying the result or the error.
//
// The search never waits for the reader. While the reader lags, pending
// improvements and progress reports are coalesced so that only the latest
// of each is delivered. The channel is closed after the final event, which
// is delivered even when ctx is cancelled, so callers must drain the channel.
func (e *Engine) Stream(ctx context.Context, settings domain.Settings, c *catalog.Catalog, opts Options) <-chan domain.Event {
	out := make(chan domain.Event, 16)
	q := newEventQueue()

	var final *domain.FinishEvent
	hooks := domain.CombineHooks(e.hooks, domain.LifecycleHooks{
		OnPhase: func(_ context.Context, p *domain.PhaseEvent) {
			q.push(domain.Event{Type: domain.EventPhase, Phase: p})
		},
		OnImprovement: func(_ context.Context, i *domain.ImprovementEvent) {
			q.push(domain.Event{Type: domain.EventImprovement, Improvement: i})
		},
		OnProgress: func(_ context.Context, p *domain.ProgressEvent) {
			q.push(domain.Event{Type: domain.EventProgress, Progress: p})
		},
		OnFinish: func(_ context.Context, f *domain.FinishEvent) {
			final = f
		},
	})

	go q.forward(ctx, out)
	go func() {
		id := uuid.NewString()
		res, err := e.solve(ctx, id, settings, c, opts, hooks)
		if final == nil {
			final = &domain.FinishEvent{
				EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventFinish, SessionID: id},
				Result:    &res,
			}
			if err != nil {
				final.Err = err.Error()
			}
		}
		q.push(domain.Event{Type: domain.EventFinish, Finish: final})
		q.close()
	}()
	return out
}

// eventQueue decouples the solve from the stream reader. push never blocks.
type eventQueue struct {
	mu     sync.Mutex
	events []domain.Event
	closed bool
	wake   chan struct{}
}

func newEventQueue() *eventQueue {
	return &eventQueue{wake: make(chan struct{}, 1)}
}

// push appends ev. An improvement or progress event replaces a pending one
// of the same type queued after the last phase change.
func (q *eventQueue) push(ev domain.Event) {
	q.mu.Lock()
	if ev.Type == domain.EventImprovement || ev.Type == domain.EventProgress {
		for i := len(q.events) - 1; i >= 0 && q.events[i].Type != domain.EventPhase; i-- {
			if q.events[i].Type == ev.Type {
				q.events = append(q.events[:i], q.events[i+1:]...)
				break
			}
		}
	}
	q.events = append(q.events, ev)
	q.mu.Unlock()
	q.signal()
}

func (q *eventQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *eventQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *eventQueue) take() ([]domain.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	evs := q.events
	q.events = nil
	return evs, q.closed
}

// forward drains the queue into out until the final event is sent. Once ctx
// is done only the final event is still delivered.
func (q *eventQueue) forward(ctx context.Context, out chan<- domain.Event) {
	defer close(out)
	for range q.wake {
		evs, closed := q.take()
		for _, ev := range evs {
			if ev.Type == domain.EventFinish {
				out <- ev
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
			}
		}
		if closed {
			return
		}
	}
}

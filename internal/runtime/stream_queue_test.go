package runtime

import (
	"context"
	"testing"

	"github.com/aretw0/artisan/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_Coalesces(t *testing.T) {
	q := newEventQueue()
	q.push(domain.Event{Type: domain.EventPhase, Phase: &domain.PhaseEvent{}})
	for i := range 1000 {
		q.push(domain.Event{Type: domain.EventProgress, Progress: &domain.ProgressEvent{Nodes: uint64(i)}})
	}
	q.push(domain.Event{Type: domain.EventPhase, Phase: &domain.PhaseEvent{}})
	q.push(domain.Event{Type: domain.EventProgress, Progress: &domain.ProgressEvent{Nodes: 7}})

	evs, closed := q.take()
	assert.False(t, closed)
	require.Len(t, evs, 4, "one pending progress event per phase")
	assert.Equal(t, uint64(999), evs[1].Progress.Nodes)
	assert.Equal(t, uint64(7), evs[3].Progress.Nodes)
}

func TestEventQueue_FinishSurvivesCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	q := newEventQueue()
	out := make(chan domain.Event)
	done := make(chan struct{})
	go func() {
		q.forward(ctx, out)
		close(done)
	}()

	q.push(domain.Event{Type: domain.EventProgress, Progress: &domain.ProgressEvent{}})
	q.push(domain.Event{Type: domain.EventFinish, Finish: &domain.FinishEvent{}})
	q.close()

	var got []domain.Event
	for ev := range out {
		got = append(got, ev)
	}
	<-done
	require.NotEmpty(t, got)
	assert.Equal(t, domain.EventFinish, got[len(got)-1].Type)
}

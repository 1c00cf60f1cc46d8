package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/artisan/pkg/adapters/memory"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.New())
	ctx := context.Background()
	solve := func(context.Context) (*domain.Record, error) {
		return &domain.Record{Result: domain.Result{Optimal: true}}, nil
	}

	for i := range 10000 {
		key := fmt.Sprintf("key-%d", i)
		require.NoError(t, mgr.Save(ctx, key, &domain.Record{Key: key}))
		_, cached, err := mgr.LoadOrSolve(ctx, key, solve, nil)
		require.NoError(t, err)
		require.True(t, cached)
		require.NoError(t, mgr.Delete(ctx, key))
	}

	assert.Empty(t, mgr.locks, "every per-key lock is released after use")
}

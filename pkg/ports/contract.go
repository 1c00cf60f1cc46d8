package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/artisan/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunMacroStoreContract runs a suite of tests to verify that a MacroStore implementation
// adheres to the defined interface contract.
func RunMacroStoreContract(t *testing.T, store MacroStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	record := func(quality uint32) *domain.Record {
		return &domain.Record{
			Key: key,
			Settings: domain.Settings{
				MaxCP: 300, MaxDurability: 70, ProgressTarget: 2000, QualityTarget: 6000,
				BaseProgress: 200, BaseQuality: 200,
			},
			Result: domain.Result{
				SessionID: "contract",
				Macro:     domain.Macro{3, 1, 4, 1, 5},
				Actions:   []string{"veneration", "groundwork", "innovation", "groundwork", "byregots_blessing"},
				Score:     domain.Score{Quality: quality, Steps: 5, Duration: 13},
				Feasible:  true,
				Found:     true,
				Optimal:   true,
			},
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		rec := record(4200)
		require.NoError(t, store.Save(ctx, key, rec), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.Settings, loaded.Settings)
		assert.Equal(t, rec.Result.Macro, loaded.Result.Macro)
		assert.Equal(t, rec.Result.Actions, loaded.Result.Actions)
		assert.Equal(t, rec.Result.Score, loaded.Result.Score)
		assert.True(t, loaded.Result.Optimal)
		assert.True(t, rec.CreatedAt.Equal(loaded.CreatedAt))
	})

	t.Run("Save Replaces", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, record(5000)))
		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, uint32(5000), loaded.Result.Score.Quality)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrMacroNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, record(1)))
		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrMacroNotFound, "Load after Delete should return ErrMacroNotFound")

		assert.NoError(t, store.Delete(ctx, key), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		require.NoError(t, store.Save(ctx, id1, record(10)))
		require.NoError(t, store.Save(ctx, id2, record(20)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}

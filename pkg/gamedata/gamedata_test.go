package gamedata_test

import (
	"strings"
	"testing"

	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/gamedata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeLevel(t *testing.T) {
	tests := []struct {
		job, want int
	}{
		{0, 1},
		{1, 1},
		{50, 50},
		{51, 120},
		{90, 560},
		{100, 560},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, gamedata.RecipeLevel(tt.job), "job level %d", tt.job)
	}
}

func TestDefaultTable(t *testing.T) {
	table := gamedata.Default()
	require.NotEmpty(t, table.Recipes())

	r, err := table.Recipe("claro walnut lumber")
	require.NoError(t, err)
	assert.Equal(t, 710, r.Level)
	assert.Equal(t, 180, r.ProgressDiv)

	byID, err := table.RecipeByID(r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, byID)

	_, err = table.Recipe("Nonexistent Widget")
	assert.ErrorIs(t, err, gamedata.ErrRecipeNotFound)
	_, err = table.RecipeByID(-1)
	assert.ErrorIs(t, err, gamedata.ErrRecipeNotFound)

	assert.Len(t, table.Search("INGOT"), 1)
	assert.Empty(t, table.Search("zzz"))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", `{"recipes": [`},
		{"no recipes", `{"items": []}`},
		{"zero divisor", `{"recipes": [{"id": 1, "name": "x", "progressDiv": 0, "qualityDiv": 10}]}`},
		{"unnamed", `{"recipes": [{"id": 1, "progressDiv": 10, "qualityDiv": 10}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gamedata.Load(strings.NewReader(tt.data))
			assert.ErrorIs(t, err, gamedata.ErrInvalidTable)
		})
	}
}

func TestSettings(t *testing.T) {
	table := gamedata.Default()
	c := catalog.Default()
	manipulation, err := c.Lookup("manipulation")
	require.NoError(t, err)

	t.Run("Modifiers Apply At Or Above Crafter Level", func(t *testing.T) {
		r, err := table.Recipe("Claro Walnut Lumber")
		require.NoError(t, err)

		s, err := gamedata.Settings(r, gamedata.Crafter{
			Craftsmanship: 4000, Control: 4000, CP: 600, JobLevel: 100, Manipulation: true,
		}, c)
		require.NoError(t, err)

		// floor((4000*10/180 + 2) * 0.9) and floor((4000*10/160 + 35) * 0.8)
		assert.Equal(t, 201, s.BaseProgress)
		assert.Equal(t, 228, s.BaseQuality)
		assert.Equal(t, 600, s.MaxCP)
		assert.Equal(t, 80, s.MaxDurability)
		assert.Equal(t, 7480, s.ProgressTarget)
		assert.Equal(t, 13620, s.QualityTarget)
		assert.True(t, s.Allowed.Has(manipulation))
		assert.NoError(t, s.Validate())
	})

	t.Run("Low Recipe Skips Modifiers", func(t *testing.T) {
		r, err := table.Recipe("Bronze Ingot")
		require.NoError(t, err)

		s, err := gamedata.Settings(r, gamedata.Crafter{
			Craftsmanship: 100, Control: 90, CP: 200, JobLevel: 20,
		}, nil)
		require.NoError(t, err)

		// floor(100*10/50 + 2) and floor(90*10/30 + 35)
		assert.Equal(t, 22, s.BaseProgress)
		assert.Equal(t, 65, s.BaseQuality)
		assert.False(t, s.Allowed.Has(manipulation))
		assert.Equal(t, c.Resolve(20).Mask().Without(manipulation), s.Allowed)
	})

	t.Run("Rejects Job Level", func(t *testing.T) {
		_, err := gamedata.Settings(gamedata.Recipe{ProgressDiv: 1, QualityDiv: 1}, gamedata.Crafter{JobLevel: 0}, c)
		assert.ErrorIs(t, err, domain.ErrInvalidSettings)
	})
}

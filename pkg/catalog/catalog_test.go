package catalog_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/condition"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := catalog.Default()
	require.NotNil(t, c)
	assert.Equal(t, "dawntrail", c.Name())
	assert.Equal(t, catalog.MaxLevel, c.Level())
	assert.Equal(t, c.Len(), c.Mask().Len(), "every action is available at max level")

	id, err := c.Lookup("Byregot's Blessing")
	require.NoError(t, err)
	a := c.Action(id)
	assert.Equal(t, "byregots_blessing", a.Name)
	assert.True(t, a.ConsumesInnerQuiet)

	tricks, err := c.Lookup("tricks-of-the-trade")
	require.NoError(t, err)
	assert.True(t, c.Action(tricks).ConditionAllowed(condition.Good))
	assert.False(t, c.Action(tricks).ConditionAllowed(condition.Normal))
}

func TestResolve_Upgrades(t *testing.T) {
	c := catalog.Default()
	id, err := c.Lookup("basic_synthesis")
	require.NoError(t, err)
	assert.Equal(t, 120, c.Action(id).Progress)

	low := c.Resolve(20)
	assert.Equal(t, 100, low.Action(id).Progress)
	assert.Equal(t, 20, low.Level())

	manip, err := c.Lookup("manipulation")
	require.NoError(t, err)
	assert.False(t, low.Mask().Has(manip))
	assert.True(t, c.Mask().Has(manip))

	again := low.Resolve(catalog.MaxLevel)
	assert.Equal(t, 120, again.Action(id).Progress, "resolving a resolved catalog starts from the source table")
	assert.Equal(t, c.Digest(), again.Digest())
	assert.NotEqual(t, c.Digest(), low.Digest())
}

func TestMacroNames(t *testing.T) {
	c := catalog.Default()
	m, err := c.ParseMacro([]string{"Muscle Memory", "veneration", "groundwork"})
	require.NoError(t, err)
	assert.Equal(t, []string{"muscle_memory", "veneration", "groundwork"}, c.Names(m))
	assert.Equal(t, 3+2+3, c.Duration(m))

	_, err = c.ParseMacro([]string{"final_appraisal"})
	assert.True(t, errors.Is(err, domain.ErrUnknownAction))
}

func TestComboLinks(t *testing.T) {
	c := catalog.Default()
	id, err := c.Lookup("advanced_touch")
	require.NoError(t, err)
	a := c.Action(id)

	link, ok := a.Link(domain.ComboObserve)
	require.True(t, ok)
	require.NotNil(t, link.CP)
	assert.Equal(t, 18, *link.CP)
	assert.Equal(t, 18, a.MinCPCost())

	_, ok = a.Link(domain.ComboBasicTouch)
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	src := `
name: tiny
actions:
  - name: a
    durability: 10
    progress: 20
  - name: b
    cp: 30
    durability: 10
    quality: 20
`
	c, err := catalog.Load(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, domain.MaskOf(0, 1), c.Mask())
	assert.Equal(t, 3, c.Action(0).Time, "time defaults to three seconds")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		key  string
	}{
		{
			name: "free action",
			src:  "actions:\n  - name: free\n    progress: 10\n",
			key:  "actions[0].cp",
		},
		{
			name: "duplicate name",
			src:  "actions:\n  - name: a\n    cp: 1\n  - name: A\n    cp: 1\n",
			key:  "actions[1].name",
		},
		{
			name: "negative cp without condition",
			src:  "actions:\n  - name: a\n    cp: -5\n    durability: 10\n",
			key:  "actions[0].cp",
		},
		{
			name: "success rate out of range",
			src:  "actions:\n  - name: a\n    cp: 1\n    success_rate: 150\n",
			key:  "actions[0].success_rate",
		},
		{
			name: "untimed grant",
			src:  "actions:\n  - name: a\n    cp: 1\n    grants:\n      - effect: inner_quiet\n        turns: 2\n",
			key:  "actions[0].grants[0].effect",
		},
		{
			name: "potency too large",
			src:  "actions:\n  - name: a\n    durability: 10\n    progress: 1000000\n",
			key:  "actions[0].progress",
		},
		{
			name: "empty",
			src:  "name: nothing\n",
			key:  "actions",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.Load(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, catalog.ErrInvalidCatalog))

			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.key, vErr.Key)
		})
	}
}

func TestLoad_UnknownField(t *testing.T) {
	_, err := catalog.Load(strings.NewReader("actions:\n  - name: a\n    cp: 1\n    potency: 3\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrInvalidCatalog))
}

// Package gamedata derives process settings from recipe tables and crafter
// stats.
package gamedata

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/tidwall/gjson"
)

// ErrRecipeNotFound is returned when a recipe is not in the table.
var ErrRecipeNotFound = errors.New("recipe not found")

// ErrInvalidTable is returned when recipe data cannot be parsed.
var ErrInvalidTable = errors.New("invalid recipe table")

// Levels maps a job level (index + 1) to its recipe level.
var Levels = [...]int{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26,
	27, 28, 29, 30, 31, 32, 33, 34, 35, 36, 37, 38, 39, 40, 41, 42, 43, 44, 45, 46, 47, 48, 49, 50,
	120, 125, 130, 133, 136, 139, 142, 145, 148, 150, 260, 265, 270, 273, 276, 279, 282, 285, 288,
	290, 390, 395, 400, 403, 406, 409, 412, 415, 418, 420, 517, 520, 525, 530, 535, 540, 545, 550,
	555, 560,
}

// RecipeLevel returns the recipe level of a job level. Levels past the end
// of the table keep its last entry.
func RecipeLevel(jobLevel int) int {
	if jobLevel < 1 {
		return Levels[0]
	}
	if jobLevel > len(Levels) {
		return Levels[len(Levels)-1]
	}
	return Levels[jobLevel-1]
}

// Recipe is one entry of the recipe table.
type Recipe struct {
	ID                    int    `json:"id"`
	Name                  string `json:"name"`
	Level                 int    `json:"level"`
	Progress              int    `json:"progress"`
	Quality               int    `json:"quality"`
	Durability            int    `json:"durability"`
	ProgressDiv           int    `json:"progress_div"`
	ProgressMod           int    `json:"progress_mod"`
	QualityDiv            int    `json:"quality_div"`
	QualityMod            int    `json:"quality_mod"`
	MaterialQualityFactor int    `json:"material_quality_factor"`
}

// Crafter holds the stats the settings are derived from.
type Crafter struct {
	Craftsmanship int  `json:"craftsmanship" yaml:"craftsmanship" mapstructure:"craftsmanship"`
	Control       int  `json:"control" yaml:"control" mapstructure:"control"`
	CP            int  `json:"cp" yaml:"cp" mapstructure:"cp"`
	JobLevel      int  `json:"job_level" yaml:"job_level" mapstructure:"job_level"`
	Manipulation  bool `json:"manipulation" yaml:"manipulation" mapstructure:"manipulation"`
}

// Table is a parsed recipe table.
type Table struct {
	recipes []Recipe
}

//go:embed recipes.json
var defaultJSON string

var defaultTable = sync.OnceValue(func() *Table {
	t, err := Parse(defaultJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded recipe table: %v", err))
	}
	return t
})

// Default returns the embedded sample table.
func Default() *Table {
	return defaultTable()
}

// Load reads a recipe table.
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe table: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes a JSON document with a top-level "recipes" array.
func Parse(data string) (*Table, error) {
	if !gjson.Valid(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidTable)
	}
	list := gjson.Get(data, "recipes")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: missing recipes array", ErrInvalidTable)
	}

	t := &Table{}
	var err error
	list.ForEach(func(_, v gjson.Result) bool {
		r := Recipe{
			ID:                    int(v.Get("id").Int()),
			Name:                  v.Get("name").String(),
			Level:                 int(v.Get("level").Int()),
			Progress:              int(v.Get("progress").Int()),
			Quality:               int(v.Get("quality").Int()),
			Durability:            int(v.Get("durability").Int()),
			ProgressDiv:           int(v.Get("progressDiv").Int()),
			ProgressMod:           int(v.Get("progressMod").Int()),
			QualityDiv:            int(v.Get("qualityDiv").Int()),
			QualityMod:            int(v.Get("qualityMod").Int()),
			MaterialQualityFactor: int(v.Get("materialQualityFactor").Int()),
		}
		if r.Name == "" || r.ProgressDiv <= 0 || r.QualityDiv <= 0 {
			err = fmt.Errorf("%w: recipe %d needs a name and positive divisors", ErrInvalidTable, r.ID)
			return false
		}
		t.recipes = append(t.recipes, r)
		return true
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Recipes returns every recipe in table order.
func (t *Table) Recipes() []Recipe {
	out := make([]Recipe, len(t.recipes))
	copy(out, t.recipes)
	return out
}

// Recipe looks a recipe up by name, ignoring case.
func (t *Table) Recipe(name string) (Recipe, error) {
	for _, r := range t.recipes {
		if strings.EqualFold(r.Name, strings.TrimSpace(name)) {
			return r, nil
		}
	}
	return Recipe{}, fmt.Errorf("%w: %q", ErrRecipeNotFound, name)
}

// RecipeByID looks a recipe up by id.
func (t *Table) RecipeByID(id int) (Recipe, error) {
	for _, r := range t.recipes {
		if r.ID == id {
			return r, nil
		}
	}
	return Recipe{}, fmt.Errorf("%w: id %d", ErrRecipeNotFound, id)
}

// Search returns the recipes whose name contains query, ignoring case.
func (t *Table) Search(query string) []Recipe {
	query = strings.ToLower(query)
	var out []Recipe
	for _, r := range t.recipes {
		if strings.Contains(strings.ToLower(r.Name), query) {
			out = append(out, r)
		}
	}
	return out
}

// Settings derives the process settings for crafting r. Recipes at or above
// the crafter's recipe level apply the recipe's progress and quality
// modifiers. The allowed actions are those unlocked at the job level, minus
// Manipulation unless the crafter has learned it. A nil catalog means the
// default one.
func Settings(r Recipe, cr Crafter, c *catalog.Catalog) (domain.Settings, error) {
	if cr.JobLevel < 1 || cr.JobLevel > catalog.MaxLevel {
		return domain.Settings{}, &domain.AggregateError{Errors: []error{
			&domain.ValidationError{Key: "job_level", Reason: fmt.Sprintf("must be between 1 and %d", catalog.MaxLevel), Value: cr.JobLevel},
		}}
	}
	if c == nil {
		c = catalog.Default()
	}

	baseProgress := float64(cr.Craftsmanship)*10/float64(r.ProgressDiv) + 2
	baseQuality := float64(cr.Control)*10/float64(r.QualityDiv) + 35
	if RecipeLevel(cr.JobLevel) <= r.Level {
		baseProgress = baseProgress * float64(r.ProgressMod) / 100
		baseQuality = baseQuality * float64(r.QualityMod) / 100
	}

	allowed := c.Resolve(cr.JobLevel).Mask()
	if !cr.Manipulation {
		if id, err := c.Lookup("manipulation"); err == nil {
			allowed = allowed.Without(id)
		}
	}

	return domain.Settings{
		MaxCP:          cr.CP,
		MaxDurability:  r.Durability,
		ProgressTarget: r.Progress,
		QualityTarget:  r.Quality,
		BaseProgress:   int(math.Floor(baseProgress)),
		BaseQuality:    int(math.Floor(baseQuality)),
		JobLevel:       cr.JobLevel,
		Allowed:        allowed,
	}, nil
}

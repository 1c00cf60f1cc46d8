// Package config decodes solve requests from YAML or JSON documents.
package config

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/aretw0/artisan/internal/runtime"
	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/gamedata"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ErrNoSettings is returned when a request names neither settings nor a recipe.
var ErrNoSettings = errors.New("request needs settings or a recipe and crafter")

// Request describes one solve. Settings are taken verbatim when present;
// otherwise they are derived from Recipe and Crafter.
type Request struct {
	Settings *domain.Settings  `json:"settings,omitempty" yaml:"settings,omitempty" mapstructure:"settings"`
	Recipe   string            `json:"recipe,omitempty" yaml:"recipe,omitempty" mapstructure:"recipe"`
	Crafter  *gamedata.Crafter `json:"crafter,omitempty" yaml:"crafter,omitempty" mapstructure:"crafter"`

	// Actions restricts the usable actions by name.
	Actions []string `json:"actions,omitempty" yaml:"actions,omitempty" mapstructure:"actions"`
	// Catalog is a path to an action catalog file. Empty means the default.
	Catalog string `json:"catalog,omitempty" yaml:"catalog,omitempty" mapstructure:"catalog"`
	// Recipes is a path to a recipe table. Empty means the embedded one.
	Recipes string `json:"recipes,omitempty" yaml:"recipes,omitempty" mapstructure:"recipes"`

	// Macro is used by simulation requests.
	Macro []string      `json:"macro,omitempty" yaml:"macro,omitempty" mapstructure:"macro"`
	Rolls []domain.Roll `json:"rolls,omitempty" yaml:"rolls,omitempty" mapstructure:"rolls"`

	Options runtime.Options `json:"options" yaml:"options" mapstructure:"options"`
}

// LoadFile reads a request from path.
func LoadFile(path string) (*Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open request: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a YAML or JSON request.
func Load(r io.Reader) (*Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoSettings
	}

	var raw map[string]any
	if trimmed := bytes.TrimSpace(data); trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return Decode(raw)
}

// Decode converts a generic map, as produced by YAML or JSON decoders,
// into a Request. Unknown keys are rejected.
func Decode(raw map[string]any) (*Request, error) {
	var req Request
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &req,
		Metadata:         &md,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			textUnmarshalerHook(),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	return &req, nil
}

// textUnmarshalerHook decodes strings into types such as condition.Tier.
func textUnmarshalerHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		ptr := reflect.New(to)
		u, ok := ptr.Interface().(encoding.TextUnmarshaler)
		if !ok {
			return data, nil
		}
		if err := u.UnmarshalText([]byte(data.(string))); err != nil {
			return nil, err
		}
		return ptr.Elem().Interface(), nil
	}
}

// LoadCatalog returns the catalog the request names.
func (r *Request) LoadCatalog() (*catalog.Catalog, error) {
	if r.Catalog == "" {
		return catalog.Default(), nil
	}
	f, err := os.Open(r.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return catalog.Load(f)
}

// LoadRecipes returns the recipe table the request names.
func (r *Request) LoadRecipes() (*gamedata.Table, error) {
	if r.Recipes == "" {
		return gamedata.Default(), nil
	}
	f, err := os.Open(r.Recipes)
	if err != nil {
		return nil, fmt.Errorf("failed to open recipe table: %w", err)
	}
	defer f.Close()
	return gamedata.Load(f)
}

// Resolve produces validated settings for catalog c.
func (r *Request) Resolve(c *catalog.Catalog) (domain.Settings, error) {
	var settings domain.Settings
	switch {
	case r.Settings != nil:
		settings = *r.Settings
	case r.Recipe != "" && r.Crafter != nil:
		table, err := r.LoadRecipes()
		if err != nil {
			return settings, err
		}
		recipe, err := table.Recipe(r.Recipe)
		if err != nil {
			return settings, err
		}
		if settings, err = gamedata.Settings(recipe, *r.Crafter, c); err != nil {
			return settings, err
		}
	default:
		return settings, ErrNoSettings
	}

	if len(r.Actions) > 0 {
		ids, err := c.ParseMacro(r.Actions)
		if err != nil {
			return settings, err
		}
		mask := domain.MaskOf(ids...)
		if settings.Allowed != 0 {
			mask &= settings.Allowed
		}
		settings.Allowed = mask
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// ParseMacro resolves the request's action names.
func (r *Request) ParseMacro(c *catalog.Catalog) (domain.Macro, error) {
	return c.ParseMacro(r.Macro)
}

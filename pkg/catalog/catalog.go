package catalog

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/artisan/pkg/domain"
	"gopkg.in/yaml.v3"
)

// MaxLevel is the job level used when settings leave it unset.
const MaxLevel = 100

// ErrInvalidCatalog wraps every catalog load failure.
var ErrInvalidCatalog = errors.New("invalid catalog")

//go:embed default.yaml
var defaultYAML []byte

// document is the on-disk shape of a catalog file.
type document struct {
	Name    string   `yaml:"name"`
	Actions []Action `yaml:"actions"`
}

// Catalog is an immutable, indexed action table. A catalog returned by
// Resolve has level upgrades applied and a mask of the actions available at
// that level.
type Catalog struct {
	name    string
	base    []Action
	actions []Action
	index   map[string]domain.ActionID
	level   int
	mask    domain.ActionMask
	digest  string
}

// Load parses and validates a YAML catalog. The result is resolved at MaxLevel.
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return New(doc.Name, doc.Actions)
}

// New validates actions and builds a catalog resolved at MaxLevel. Action
// ids follow the slice order.
func New(name string, actions []Action) (*Catalog, error) {
	actions = slices.Clone(actions)
	if err := validate(actions); err != nil {
		return nil, err
	}

	c := &Catalog{
		name:  name,
		base:  actions,
		index: make(map[string]domain.ActionID, 2*len(actions)),
	}
	for i := range c.base {
		c.base[i].ID = domain.ActionID(i)
		c.index[normalize(c.base[i].Name)] = domain.ActionID(i)
		if c.base[i].Label != "" {
			c.index[normalize(c.base[i].Label)] = domain.ActionID(i)
		}
	}
	return c.Resolve(MaxLevel), nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := Load(bytes.NewReader(defaultYAML))
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
})

// Default returns the embedded catalog resolved at MaxLevel.
func Default() *Catalog {
	return defaultCatalog()
}

// Resolve applies level upgrades and masks out actions above level.
// A level of zero means MaxLevel.
func (c *Catalog) Resolve(level int) *Catalog {
	if level <= 0 {
		level = MaxLevel
	}
	out := &Catalog{
		name:    c.name,
		base:    c.base,
		actions: make([]Action, len(c.base)),
		index:   c.index,
		level:   level,
	}
	for i := range c.base {
		src := &c.base[i]
		out.actions[i] = src.resolve(level)
		if src.Level <= level {
			out.mask = out.mask.With(domain.ActionID(i))
		}
	}
	out.digest = digest(out.name, level, out.actions)
	return out
}

func digest(name string, level int, actions []Action) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s@%d\n", name, level)
	enc := json.NewEncoder(h)
	for i := range actions {
		_ = enc.Encode(&actions[i])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Name is the catalog's declared name.
func (c *Catalog) Name() string { return c.name }

// Level is the job level the catalog was resolved at.
func (c *Catalog) Level() int { return c.level }

// Len is the number of actions, available or not.
func (c *Catalog) Len() int { return len(c.actions) }

// Mask is the set of actions available at the resolved level.
func (c *Catalog) Mask() domain.ActionMask { return c.mask }

// Digest identifies the resolved action table, for cache keys.
func (c *Catalog) Digest() string { return c.digest }

// Action returns the resolved definition of id. It panics on out-of-range ids.
func (c *Catalog) Action(id domain.ActionID) *Action {
	return &c.actions[id]
}

// Actions returns the resolved definitions in id order.
func (c *Catalog) Actions() []Action {
	out := make([]Action, len(c.actions))
	copy(out, c.actions)
	return out
}

// Lookup resolves an action by name or label. Matching ignores case,
// apostrophes and the choice between spaces, hyphens and underscores.
func (c *Catalog) Lookup(name string) (domain.ActionID, error) {
	id, ok := c.index[normalize(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownAction, name)
	}
	return id, nil
}

// ParseMacro resolves a list of action names.
func (c *Catalog) ParseMacro(names []string) (domain.Macro, error) {
	out := make(domain.Macro, 0, len(names))
	for _, n := range names {
		id, err := c.Lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// Names returns the action names of a macro.
func (c *Catalog) Names(m domain.Macro) []string {
	out := make([]string, len(m))
	for i, id := range m {
		out[i] = c.actions[id].Name
	}
	return out
}

// Duration is the total wait time of a macro in seconds.
func (c *Catalog) Duration(m domain.Macro) int {
	total := 0
	for _, id := range m {
		total += c.actions[id].Time
	}
	return total
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "'", "")
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

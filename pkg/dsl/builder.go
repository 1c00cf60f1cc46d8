package dsl

import (
	"fmt"

	"github.com/aretw0/artisan/pkg/catalog"
)

// Builder manages the catalog construction.
type Builder struct {
	name    string
	actions []*ActionBuilder
	index   map[string]*ActionBuilder
}

// New creates a new catalog builder.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		index: make(map[string]*ActionBuilder),
	}
}

// Add creates a new action in the catalog. Actions keep the order they were
// added in. If the action already exists, it returns the existing builder.
func (b *Builder) Add(name string) *ActionBuilder {
	if ab, ok := b.index[name]; ok {
		return ab
	}
	ab := &ActionBuilder{
		action: catalog.Action{Name: name},
	}
	b.actions = append(b.actions, ab)
	b.index[name] = ab
	return ab
}

// Build validates the actions and compiles them into a Catalog.
func (b *Builder) Build() (*catalog.Catalog, error) {
	actions := make([]catalog.Action, 0, len(b.actions))
	for _, ab := range b.actions {
		actions = append(actions, ab.Build())
	}

	c, err := catalog.New(b.name, actions)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	return c, nil
}

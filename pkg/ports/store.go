package ports

import (
	"context"

	"github.com/aretw0/artisan/pkg/domain"
)

// MacroStore persists solved macros so an identical request is answered
// without searching again.
type MacroStore interface {
	// Save persists the record under key, replacing any previous one.
	Save(ctx context.Context, key string, rec *domain.Record) error

	// Load retrieves the record for key.
	// Returns domain.ErrMacroNotFound if nothing is stored under key.
	Load(ctx context.Context, key string) (*domain.Record, error)

	// Delete removes the record for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns every stored key.
	List(ctx context.Context) ([]string, error)
}

package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
)

// ListCache writes the cached macro keys with a one-line summary each.
func ListCache(ctx context.Context, w io.Writer, opts Options) error {
	store, _, closeStore, err := OpenStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()
	if store == nil {
		return fmt.Errorf("no cache store configured")
	}

	keys, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cache: %w", err)
	}
	if len(keys) == 0 {
		fmt.Fprintln(w, "No cached macros found.")
		return nil
	}
	sort.Strings(keys)

	fmt.Fprintln(w, "Cached Macros:")
	for _, key := range keys {
		rec, err := store.Load(ctx, key)
		if err != nil {
			fmt.Fprintf(w, "- %s (unreadable: %v)\n", key, err)
			continue
		}
		fmt.Fprintf(w, "- %s  quality %d/%d, %d steps, %s\n", key,
			rec.Result.Score.Quality, rec.Settings.QualityTarget, rec.Result.Score.Steps,
			rec.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// InspectCache writes the cached record under key.
func InspectCache(ctx context.Context, w io.Writer, key string, opts Options) error {
	store, _, closeStore, err := OpenStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()
	if store == nil {
		return fmt.Errorf("no cache store configured")
	}

	rec, err := store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load %q: %w", key, err)
	}
	if opts.Format == FormatYAML {
		return writeYAML(w, rec)
	}
	return writeJSON(w, rec)
}

// RemoveCache deletes the records under keys, or every record when all is
// set. It reports each key and fails if any removal failed.
func RemoveCache(ctx context.Context, w io.Writer, keys []string, all bool, opts Options) error {
	store, _, closeStore, err := OpenStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()
	if store == nil {
		return fmt.Errorf("no cache store configured")
	}

	if all {
		if keys, err = store.List(ctx); err != nil {
			return fmt.Errorf("failed to list cache: %w", err)
		}
	}

	var failed int
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			fmt.Fprintf(w, "Error removing '%s': %v\n", key, err)
			failed++
			continue
		}
		fmt.Fprintf(w, "Removed '%s'\n", key)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d removals failed", failed, len(keys))
	}
	return nil
}

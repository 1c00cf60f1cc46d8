package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/artisan/internal/presentation/tui"
	"github.com/aretw0/artisan/pkg/config"
)

// RunValidate checks that req resolves to valid settings and that its
// macro, if any, names known actions.
func RunValidate(w io.Writer, req *config.Request, opts Options) error {
	c, settings, err := prepare(req, opts)
	if err != nil {
		fmt.Fprintln(w, tui.Status(false, err.Error()))
		return err
	}
	fmt.Fprintln(w, tui.Status(true, fmt.Sprintf("catalog %q: %d actions at level %d", c.Name(), c.Len(), c.Level())))
	fmt.Fprintln(w, tui.Status(true, fmt.Sprintf("settings: progress %d, quality %d, durability %d, cp %d",
		settings.ProgressTarget, settings.QualityTarget, settings.MaxDurability, settings.MaxCP)))

	if len(req.Macro) > 0 {
		m, err := req.ParseMacro(c)
		if err != nil {
			fmt.Fprintln(w, tui.Status(false, err.Error()))
			return err
		}
		fmt.Fprintln(w, tui.Status(true, fmt.Sprintf("macro: %d steps, %ds", len(m), c.Duration(m))))
	}
	return nil
}

// RunActions lists the actions of the catalog at path, or the default one.
func RunActions(w io.Writer, path string, level int, format string) error {
	req := &config.Request{Catalog: path}
	c, err := req.LoadCatalog()
	if err != nil {
		return err
	}
	if level > 0 {
		c = c.Resolve(level)
	}
	switch format {
	case FormatJSON:
		return writeJSON(w, c.Actions())
	case FormatYAML:
		return writeYAML(w, c.Actions())
	case "", FormatText, FormatMarkdown:
		return writeMarkdown(w, tui.ActionTable(c))
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// RunRecipes lists the recipes matching query in the table at path, or the
// embedded one.
func RunRecipes(w io.Writer, path, query, format string) error {
	req := &config.Request{Recipes: path}
	table, err := req.LoadRecipes()
	if err != nil {
		return err
	}
	recipes := table.Recipes()
	if query != "" {
		recipes = table.Search(query)
	}
	switch format {
	case FormatJSON:
		return writeJSON(w, recipes)
	case FormatYAML:
		return writeYAML(w, recipes)
	case "", FormatText:
		for _, r := range recipes {
			fmt.Fprintf(w, "%6d  %-32s lvl %3d  P %5d  Q %5d  D %3d\n", r.ID, r.Name, r.Level, r.Progress, r.Quality, r.Durability)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

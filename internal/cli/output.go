package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/artisan"
	"github.com/aretw0/artisan/internal/presentation/graph"
	"github.com/aretw0/artisan/internal/presentation/tui"
	"github.com/aretw0/artisan/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
	FormatMermaid  = "mermaid"
)

// SolveOutput is what solve writes in the json and yaml formats.
type SolveOutput struct {
	Settings  domain.Settings `json:"settings" yaml:"settings"`
	Result    domain.Result   `json:"result" yaml:"result"`
	MacroText string          `json:"macro_text,omitempty" yaml:"macro_text,omitempty"`
	Error     string          `json:"error,omitempty" yaml:"error,omitempty"`
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	// Round-trip through JSON so the json tags and marshalers shape the document.
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

// writeMarkdown renders md with glamour when w is a terminal.
func writeMarkdown(w io.Writer, md string) error {
	if f, ok := w.(*os.File); ok && tui.IsTerminal(f) {
		if rendered, err := tui.NewRenderer()(md); err == nil {
			md = rendered
		}
	}
	_, err := io.WriteString(w, md)
	return err
}

func writeSolve(w io.Writer, format string, out SolveOutput, sim artisan.Simulation) error {
	switch format {
	case "", FormatText:
		res := out.Result
		if out.Error != "" {
			fmt.Fprintf(w, "# %s\n", out.Error)
		}
		fmt.Fprintf(w, "# quality %d/%d, %d steps, %ds, %s", res.Score.Quality, out.Settings.QualityTarget, res.Score.Steps, res.Score.Duration, res.Strategy)
		if res.Optimal {
			fmt.Fprint(w, ", optimal")
		}
		if res.Cached {
			fmt.Fprint(w, ", cached")
		}
		fmt.Fprintln(w)
		if out.MacroText != "" {
			fmt.Fprintln(w, out.MacroText)
		}
		return nil
	case FormatJSON:
		return writeJSON(w, out)
	case FormatYAML:
		return writeYAML(w, out)
	case FormatMarkdown:
		return writeMarkdown(w, tui.Report(out.Result, out.Settings, sim.Steps, out.MacroText))
	case FormatMermaid:
		_, err := io.WriteString(w, graph.GenerateMermaid(sim.Steps, out.Settings))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeSimulation(w io.Writer, format string, settings domain.Settings, sim artisan.Simulation) error {
	switch format {
	case "", FormatText:
		for _, s := range sim.Steps[1:] {
			st := s.State
			fmt.Fprintf(w, "%2d. %-24s P %d/%d  Q %d/%d  D %d  CP %d  %s\n",
				s.Index, s.Name, st.Progress, settings.ProgressTarget, st.Quality, settings.QualityTarget,
				st.Durability, st.CP, st.Condition)
		}
		fmt.Fprintf(w, "outcome: %s, quality %d\n", sim.State.Outcome, sim.Score.Quality)
		if sim.Error != "" {
			fmt.Fprintf(w, "stopped: %s\n", sim.Error)
		}
		return nil
	case FormatJSON:
		return writeJSON(w, sim)
	case FormatYAML:
		return writeYAML(w, sim)
	case FormatMarkdown:
		var sb strings.Builder
		sb.WriteString(tui.StepTable(sim.Steps))
		fmt.Fprintf(&sb, "\n**Outcome:** %s, quality %d / %d\n", sim.State.Outcome, sim.Score.Quality, settings.QualityTarget)
		if sim.Error != "" {
			fmt.Fprintf(&sb, "\n**Stopped:** %s\n", sim.Error)
		}
		return writeMarkdown(w, sb.String())
	case FormatMermaid:
		_, err := io.WriteString(w, graph.GenerateMermaid(sim.Steps, settings))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

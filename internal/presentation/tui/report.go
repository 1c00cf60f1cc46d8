package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/simulator"
)

// Report renders a solve result as markdown: a summary, the step table and
// the macro text.
func Report(res domain.Result, settings domain.Settings, steps []simulator.Step, macroText string) string {
	var sb strings.Builder

	sb.WriteString("# Macro\n\n")
	switch {
	case !res.Feasible:
		sb.WriteString("**Infeasible:** the progress target cannot be reached.\n\n")
	case !res.Found:
		sb.WriteString("**No completing macro was found.**\n\n")
	}

	fmt.Fprintf(&sb, "| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Quality | %d / %d |\n", res.Score.Quality, settings.QualityTarget)
	fmt.Fprintf(&sb, "| Steps | %d |\n", res.Score.Steps)
	fmt.Fprintf(&sb, "| Duration | %ds |\n", res.Score.Duration)
	fmt.Fprintf(&sb, "| Strategy | %s |\n", orDash(res.Strategy))
	fmt.Fprintf(&sb, "| Optimal | %s |\n", yesNo(res.Optimal))
	if res.Cancelled {
		sb.WriteString("| Cancelled | yes |\n")
	}
	if res.Cached {
		sb.WriteString("| Cached | yes |\n")
	}
	fmt.Fprintf(&sb, "| Nodes | %d |\n", res.Stats.Nodes)
	fmt.Fprintf(&sb, "| Elapsed | %s |\n\n", res.Stats.Elapsed.Round(time.Millisecond))

	if len(steps) > 1 {
		sb.WriteString(StepTable(steps))
		sb.WriteString("\n")
	}

	if macroText != "" {
		sb.WriteString("```\n")
		sb.WriteString(macroText)
		sb.WriteString("\n```\n")
	}
	return sb.String()
}

// StepTable renders a trace as a markdown table.
func StepTable(steps []simulator.Step) string {
	var sb strings.Builder
	sb.WriteString("| # | Action | Progress | Quality | Durability | CP | Condition |\n")
	sb.WriteString("|---|---|---|---|---|---|---|\n")
	for _, s := range steps[1:] {
		fmt.Fprintf(&sb, "| %d | %s | %d | %d | %d | %d | %s |\n",
			s.Index, s.Name, s.State.Progress, s.State.Quality, s.State.Durability, s.State.CP, s.State.Condition)
	}
	return sb.String()
}

// ActionTable renders the catalog as a markdown table.
func ActionTable(c *catalog.Catalog) string {
	var sb strings.Builder
	sb.WriteString("| Action | Level | CP | Durability | Progress | Quality |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	mask := c.Mask()
	for _, a := range c.Actions() {
		if !mask.Has(a.ID) {
			continue
		}
		fmt.Fprintf(&sb, "| %s | %d | %d | %d | %d | %d |\n", a.Name, a.Level, a.CP, a.Durability, a.Progress, a.Quality)
	}
	return sb.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

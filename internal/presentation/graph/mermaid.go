package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/artisan/pkg/condition"
	"github.com/aretw0/artisan/pkg/domain"
	"github.com/aretw0/artisan/pkg/simulator"
)

// GenerateMermaid produces a Mermaid flowchart of a macro's progression.
// Each step is a node labelled with the action and the resulting progress,
// quality, durability and CP. Styling:
// - Initial state: ((Circle))
// - Completed: {{Hexagon}}
// - Failed: [/Parallelogram/]
// - Default: [Rectangle]
// The edge into a step carries the condition it was taken under, unless Normal.
func GenerateMermaid(steps []simulator.Step, settings domain.Settings) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i, step := range steps {
		id := fmt.Sprintf("s%d", step.Index)
		st := step.State

		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case st.Outcome == domain.Completed:
			opener, closer = "{{", "}}"
		case st.Outcome == domain.Failed:
			opener, closer = "[/", "/]"
		}

		name := "start"
		if i > 0 {
			name = fmt.Sprintf("%d. %s", step.Index, sanitizeLabel(step.Name))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s<br/>P %d/%d Q %d/%d<br/>D %d CP %d\"%s\n",
			id, opener, name,
			st.Progress, settings.ProgressTarget,
			st.Quality, settings.QualityTarget,
			st.Durability, st.CP,
			closer,
		)

		if i > 0 {
			prev := steps[i-1]
			arrow := "-->"
			if c := prev.State.Condition; c != condition.Normal {
				arrow = fmt.Sprintf("-- \"%s\" -->", c)
			}
			fmt.Fprintf(&sb, "    s%d %s %s\n", prev.Index, arrow, id)
		}
	}

	if n := len(steps); n > 0 {
		sb.WriteString("\n    %% Outcome Styles\n")
		sb.WriteString("    classDef completed fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#c62828,stroke-width:2px,color:#000;\n")
		switch last := steps[n-1]; last.State.Outcome {
		case domain.Completed:
			fmt.Fprintf(&sb, "    class s%d completed;\n", last.Index)
		case domain.Failed:
			fmt.Fprintf(&sb, "    class s%d failed;\n", last.Index)
		}
	}

	return sb.String()
}

func sanitizeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

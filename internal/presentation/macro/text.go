// Package macro renders solved macros as in-game macro text.
package macro

import (
	"fmt"
	"strings"

	"github.com/aretw0/artisan/pkg/catalog"
	"github.com/aretw0/artisan/pkg/domain"
)

// MaxLines is the line limit of a single in-game macro.
const MaxLines = 15

// Lines renders one `/ac "Label" <wait.N>` line per action. Actions without
// a label use their name.
func Lines(c *catalog.Catalog, m domain.Macro) []string {
	out := make([]string, len(m))
	for i, id := range m {
		a := c.Action(id)
		label := a.Label
		if label == "" {
			label = a.Name
		}
		out[i] = fmt.Sprintf("/ac \"%s\" <wait.%d>", label, a.Time)
	}
	return out
}

// Split breaks lines into in-game macros of at most MaxLines lines. When
// the text does not fit in one macro, every macro but the last ends with an
// echo line announcing the next one.
func Split(lines []string) [][]string {
	if len(lines) <= MaxLines {
		return [][]string{lines}
	}
	per := MaxLines - 1
	var out [][]string
	for start := 0; start < len(lines); start += per {
		end := min(start+per, len(lines))
		chunk := append([]string(nil), lines[start:end]...)
		if end < len(lines) {
			chunk = append(chunk, fmt.Sprintf("/echo Macro #%d complete <se.1>", len(out)+1))
		}
		out = append(out, chunk)
	}
	return out
}

// Text renders the macro split into in-game macros separated by blank lines.
func Text(c *catalog.Catalog, m domain.Macro) string {
	chunks := Split(Lines(c, m))
	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = strings.Join(chunk, "\n")
	}
	return strings.Join(parts, "\n\n")
}

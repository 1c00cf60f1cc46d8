package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the artisan ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text, color string
	}{
		{"    _         _   _                 ", "#fbbf24"},
		{"   / \\   _ __| |_(_)___  __ _ _ __  ", "#f59e0b"},
		{"  / _ \\ | '__| __| / __|/ _` | '_ \\ ", "#f97316"},
		{" / ___ \\| |  | |_| \\__ \\ (_| | | | |", "#ef4444"},
		{"/_/   \\_\\_|   \\__|_|___/\\__,_|_| |_|", "#e11d48"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Status colours a one-line status message: green when ok, red otherwise.
func Status(ok bool, msg string) string {
	p := termenv.ColorProfile()
	if ok {
		return termenv.String("✔ " + msg).Foreground(p.Color("#22c55e")).String()
	}
	return termenv.String("✘ " + msg).Foreground(p.Color("#ef4444")).String()
}

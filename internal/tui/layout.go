package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// truncate cuts s to at most width columns without padding.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if xansi.StringWidth(s) <= width {
		return s
	}
	return xansi.Truncate(s, width, "…")
}

// columnWidth splits the canvas width into n equal columns.
func columnWidth(total, n int) int {
	if n <= 0 {
		return total
	}
	w := total / n
	if w < 1 {
		w = 1
	}
	return w
}

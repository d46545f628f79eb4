package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// reservedRows are kept free at the bottom of every canvas: the in-flight line and
// the key legend.
const reservedRows = 2

// Canvas is a fixed-size character grid that screens draw into.
// Each row is always exactly Width columns wide.
type Canvas struct {
	rows  []string
	width int
}

func NewCanvas(height, width int) *Canvas {
	c := &Canvas{}
	c.Resize(height, width)
	return c
}

// Resize changes the grid size and clears it.
func (c *Canvas) Resize(height, width int) {
	if height < 0 {
		height = 0
	}
	if width < 0 {
		width = 0
	}
	c.rows = make([]string, height)
	c.width = width
	c.Clear()
}

func (c *Canvas) Clear() {
	blank := strings.Repeat(" ", c.width)
	for i := range c.rows {
		c.rows[i] = blank
	}
}

// Size returns the number of rows and columns.
func (c *Canvas) Size() (rows, cols int) { return len(c.rows), c.width }

// Body returns the number of rows screens may use.
func (c *Canvas) Body() int {
	n := len(c.rows) - reservedRows
	if n < 0 {
		return 0
	}
	return n
}

// Put writes text at (row, col), clipped to the right edge. Writes outside the grid
// are ignored.
func (c *Canvas) Put(row, col int, text string, style lipgloss.Style) {
	if row < 0 || row >= len(c.rows) || col < 0 || col >= c.width {
		return
	}
	text = truncate(text, c.width-col)
	if text == "" {
		return
	}
	w := xansi.StringWidth(text)
	line := c.rows[row]
	c.rows[row] = xansi.Cut(line, 0, col) + style.Render(text) + xansi.Cut(line, col+w, c.width)
}

// Line returns row i without styling, for tests and debugging.
func (c *Canvas) Line(i int) string {
	if i < 0 || i >= len(c.rows) {
		return ""
	}
	return xansi.Strip(c.rows[i])
}

func (c *Canvas) Render() string {
	return strings.Join(c.rows, "\n")
}

package format

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

// Tabular is implemented by outputs that can be printed as an aligned table.
// Cells may already carry color escapes.
type Tabular interface {
	Header() []string
	Rows() [][]string
}

// WriteTable prints t with a bold header row.
func WriteTable(w io.Writer, t Tabular) error {
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = false

	header := t.Header()
	if len(header) > 0 {
		tbl.AddRow(cells(header, bold.Sprint)...)
	}
	for _, row := range t.Rows() {
		tbl.AddRow(cells(row, fmt.Sprint)...)
	}
	_, err := fmt.Fprintln(w, tbl)
	return err
}

func cells(row []string, render func(a ...any) string) []any {
	out := make([]any, len(row))
	for i, c := range row {
		out[i] = render(c)
	}
	return out
}

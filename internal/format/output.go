package format

import (
	"encoding/json"
	"fmt"
	"io"
)

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - edn
// - table (values implementing Tabular only)
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "edn":
		return WriteEDN(w, v, pretty)
	case "table":
		t, ok := v.(Tabular)
		if !ok {
			return fmt.Errorf("format table is not available for this command")
		}
		return WriteTable(w, t)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

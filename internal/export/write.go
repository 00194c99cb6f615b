package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/spice-dashboard/internal/common"
)

// Format selects an output encoding.
type Format string

// Supported formats.
const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, s)
}

// WriteCSV writes t as a title row, the key/value header block, then each
// section separated by a blank row.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)

	records := [][]string{{t.Title}}
	for _, kv := range t.Meta {
		records = append(records, []string{kv[0], kv[1]})
	}
	for _, sec := range t.Sections {
		records = append(records, []string{}, []string{sec.Title}, sec.Header)
		records = append(records, sec.Rows...)
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

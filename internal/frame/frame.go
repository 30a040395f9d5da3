package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cast"
)

// Frame is a materialized tabular result. Rows are JSON-like maps so that
// JSONPath selectors can evaluate against them directly.
type Frame struct {
	Columns []string
	Rows    []map[string]any
}

// New returns an empty frame with the given column order.
func New(columns ...string) *Frame {
	return &Frame{Columns: columns}
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Rows) }

// HasColumn reports whether the frame carries the named column.
func (f *Frame) HasColumn(name string) bool {
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Append adds a row. Unknown keys do not extend the column list; callers
// that add columns must use WithColumn.
func (f *Frame) Append(row map[string]any) {
	f.Rows = append(f.Rows, row)
}

// Clone copies the frame with fresh row maps. Enrichments mutate row maps
// in place, so a cached frame must be cloned before further transforms.
func (f *Frame) Clone() *Frame {
	out := &Frame{Columns: append([]string(nil), f.Columns...)}
	out.Rows = make([]map[string]any, len(f.Rows))
	for i, row := range f.Rows {
		cp := make(map[string]any, len(row))
		for k, v := range row {
			cp[k] = v
		}
		out.Rows[i] = cp
	}
	return out
}

// WithColumn returns the column list extended by name, if not yet present.
func (f *Frame) WithColumn(name string) {
	if !f.HasColumn(name) {
		f.Columns = append(f.Columns, name)
	}
}

// Number coerces a cell value to float64.
func Number(v any) (float64, error) {
	return cast.ToFloat64E(v)
}

// String coerces a cell value to its string form.
func String(v any) string {
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return s
}

// LoadCSV reads a headered CSV stream into a frame. Cells that parse as
// integers or floats are stored as int64/float64 so numeric predicates
// work without per-row coercion.
func LoadCSV(r io.Reader) (*Frame, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	f := New(header...)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", f.Len()+1, err)
		}
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = parseCell(record[i])
			}
		}
		f.Append(row)
	}
	return f, nil
}

func parseCell(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if x, err := strconv.ParseFloat(s, 64); err == nil {
		return x
	}
	return s
}

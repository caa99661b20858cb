package sweep

import (
	"fmt"
	"strconv"
)

type Row []float64

// Table is the result of a sweep: one header and one row per point, in
// iteration order.
type Table struct {
	Header []string
	Rows   []Row
}

func NewTable(header []string) *Table {
	return &Table{Header: header, Rows: make([]Row, 0)}
}

func (t *Table) Append(r Row) error {
	if len(r) != len(t.Header) {
		return fmt.Errorf("row has %d values, header has %d", len(r), len(t.Header))
	}
	t.Rows = append(t.Rows, r)
	return nil
}

func (t *Table) Column(name string) ([]float64, bool) {
	idx := -1
	for i, h := range t.Header {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	col := make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		col[i] = r[idx]
	}
	return col, true
}

// FormatValue renders a number the same way for templates and reports:
// the shortest decimal that round-trips, never in exponent form.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (r Row) Strings() []string {
	out := make([]string, len(r))
	for i, v := range r {
		out[i] = FormatValue(v)
	}
	return out
}

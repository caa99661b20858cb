// Package summary reads the one-row CSV summary a simulator run leaves behind
// and looks metrics up by column name, so column order in the report does not
// matter.
package summary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
)

var (
	ErrMissingColumn = errors.New("summary: metric column not found")
	ErrNoData        = errors.New("summary: no data row")
	ErrParse         = errors.New("summary: cannot parse metric value")
)

type ColumnError struct {
	Name   string
	Header []string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: %q not in header [%s]", ErrMissingColumn, e.Name, strings.Join(e.Header, ","))
}

func (e *ColumnError) Unwrap() error { return ErrMissingColumn }

type ParseError struct {
	Name  string
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %q", ErrParse, e.Name)
	}
	return fmt.Sprintf("%s %q from %q: %v", ErrParse, e.Name, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// Report holds the requested metrics in request order.
type Report struct {
	Names  []string
	Values []float64
}

func (r *Report) Value(name string) (float64, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Values[i], true
		}
	}
	return 0, false
}

func (r *Report) Map() map[string]float64 {
	m := make(map[string]float64, len(r.Names))
	for i, n := range r.Names {
		m[n] = r.Values[i]
	}
	return m
}

func Extract(path string, names []string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rep, err := Parse(f, names)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rep, nil
}

// Parse reads the header and the first data row only; anything after the
// first data row is never read.
func Parse(r io.Reader, names []string) (*Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, err
	}
	row, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, err
	}

	for i := range header {
		header[i] = stripSpace(header[i])
	}

	rep := &Report{
		Names:  make([]string, 0, len(names)),
		Values: make([]float64, 0, len(names)),
	}
	for _, name := range names {
		idx := indexOf(header, stripSpace(name))
		if idx < 0 {
			return nil, &ColumnError{Name: name, Header: header}
		}
		if idx >= len(row) {
			return nil, &ParseError{Name: name, Err: fmt.Errorf("data row has %d fields, need %d", len(row), idx+1)}
		}
		field := stripSpace(row[idx])
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, &ParseError{Name: name, Field: field, Err: err}
		}
		rep.Names = append(rep.Names, name)
		rep.Values = append(rep.Values, v)
	}
	return rep, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

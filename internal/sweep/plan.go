package sweep

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/rdsweep/internal/summary"
	"github.com/san-kum/rdsweep/internal/template"
)

// Variable is one axis of the sweep. Values are tried in order.
type Variable struct {
	Name   string
	Label  string
	Values []float64
}

// Formula computes a derived quantity from the values of the current point
// and any derived quantities declared before it.
type Formula interface {
	Eval(env map[string]float64) (float64, error)
}

type FormulaFunc func(env map[string]float64) (float64, error)

func (f FormulaFunc) Eval(env map[string]float64) (float64, error) { return f(env) }

// referencer is implemented by formulas that can report their inputs ahead
// of evaluation, letting Validate catch typos before the first run.
type referencer interface {
	Variables() []string
}

type Derived struct {
	Name    string
	Label   string
	Formula Formula
}

// Placeholder binds a template token to a variable or derived quantity.
type Placeholder struct {
	Token  string
	Source string
}

// Column selects a variable, derived quantity or metric for the result table.
type Column struct {
	Source string
	Label  string
}

type Plan struct {
	Variables    []Variable
	Derived      []Derived
	Placeholders []Placeholder
	Metrics      []string
	// Columns fixes the result column order. When empty, variables come
	// first, then derived quantities, then metrics.
	Columns []Column
}

func (p *Plan) Validate() error {
	if len(p.Variables) == 0 {
		return fmt.Errorf("%w: no sweep variables", ErrInvalidPlan)
	}

	known := map[string]string{}
	declare := func(kind, name string) error {
		if name == "" {
			return fmt.Errorf("%w: %s with empty name", ErrInvalidPlan, kind)
		}
		if prev, ok := known[name]; ok {
			return fmt.Errorf("%w: %s %q already declared as %s", ErrInvalidPlan, kind, name, prev)
		}
		known[name] = kind
		return nil
	}

	for _, v := range p.Variables {
		if err := declare("variable", v.Name); err != nil {
			return err
		}
		if len(v.Values) == 0 {
			return fmt.Errorf("%w: variable %q has no values", ErrInvalidPlan, v.Name)
		}
		for _, x := range v.Values {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("%w: variable %q has non-finite value", ErrInvalidPlan, v.Name)
			}
		}
	}

	for _, d := range p.Derived {
		if d.Formula == nil {
			return fmt.Errorf("%w: derived %q has no formula", ErrInvalidPlan, d.Name)
		}
		if r, ok := d.Formula.(referencer); ok {
			for _, ref := range r.Variables() {
				if _, ok := known[ref]; !ok {
					return fmt.Errorf("%w: derived %q references unknown %q", ErrInvalidPlan, d.Name, ref)
				}
			}
		}
		if err := declare("derived", d.Name); err != nil {
			return err
		}
	}

	tokens := make([]string, 0, len(p.Placeholders))
	for _, ph := range p.Placeholders {
		kind, ok := known[ph.Source]
		if !ok {
			return fmt.Errorf("%w: placeholder %q bound to unknown %q", ErrInvalidPlan, ph.Token, ph.Source)
		}
		if kind != "variable" && kind != "derived" {
			return fmt.Errorf("%w: placeholder %q bound to %s %q", ErrInvalidPlan, ph.Token, kind, ph.Source)
		}
		tokens = append(tokens, ph.Token)
	}
	if err := template.ValidateTokens(tokens); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}

	for _, m := range p.Metrics {
		if err := declare("metric", m); err != nil {
			return err
		}
	}

	for _, c := range p.Columns {
		if _, ok := known[c.Source]; !ok {
			return fmt.Errorf("%w: column %q not a variable, derived quantity or metric", ErrInvalidPlan, c.Source)
		}
	}
	return nil
}

// Size is the number of points in the cross product.
func (p *Plan) Size() int {
	n := 1
	for _, v := range p.Variables {
		n *= len(v.Values)
	}
	return n
}

func (p *Plan) columns() []Column {
	if len(p.Columns) > 0 {
		return p.Columns
	}
	cols := make([]Column, 0, len(p.Variables)+len(p.Derived)+len(p.Metrics))
	for _, v := range p.Variables {
		cols = append(cols, Column{Source: v.Name, Label: v.Label})
	}
	for _, d := range p.Derived {
		cols = append(cols, Column{Source: d.Name, Label: d.Label})
	}
	for _, m := range p.Metrics {
		cols = append(cols, Column{Source: m})
	}
	return cols
}

func (p *Plan) Header() []string {
	cols := p.columns()
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Label
		if header[i] == "" {
			header[i] = c.Source
		}
	}
	return header
}

// Evaluate returns the point's variable values plus every derived quantity.
func (p *Plan) Evaluate(pt Point) (map[string]float64, error) {
	env := pt.Env()
	for _, d := range p.Derived {
		v, err := d.Formula.Eval(env)
		if err != nil {
			return nil, fmt.Errorf("derived %q: %w", d.Name, err)
		}
		env[d.Name] = v
	}
	return env, nil
}

func (p *Plan) Substitutions(env map[string]float64) template.Substitutions {
	subs := make(template.Substitutions, 0, len(p.Placeholders))
	for _, ph := range p.Placeholders {
		subs = append(subs, template.Substitution{Token: ph.Token, Value: FormatValue(env[ph.Source])})
	}
	return subs
}

// Row lays out env and the extracted metrics in header order.
func (p *Plan) Row(env map[string]float64, rep *summary.Report) (Row, error) {
	cols := p.columns()
	row := make(Row, len(cols))
	for i, c := range cols {
		if v, ok := env[c.Source]; ok {
			row[i] = v
			continue
		}
		if rep != nil {
			if v, ok := rep.Value(c.Source); ok {
				row[i] = v
				continue
			}
		}
		return nil, fmt.Errorf("column %q has no value", c.Source)
	}
	return row, nil
}

func (p *Plan) String() string {
	parts := make([]string, len(p.Variables))
	for i, v := range p.Variables {
		parts[i] = fmt.Sprintf("%s[%d]", v.Name, len(v.Values))
	}
	return strings.Join(parts, " x ")
}

// Package formula evaluates derived-quantity expressions such as
// "20 / size" or "size * ratio" against the values of one sweep point.
// Expressions use HCL syntax; a small set of numeric functions is available.
package formula

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

var ErrNotFinite = errors.New("formula: result is not a finite number")

var functions = map[string]function.Function{
	"abs":   stdlib.AbsoluteFunc,
	"ceil":  stdlib.CeilFunc,
	"floor": stdlib.FloorFunc,
	"log":   stdlib.LogFunc,
	"pow":   stdlib.PowFunc,
	"min":   stdlib.MinFunc,
	"max":   stdlib.MaxFunc,
}

type Expr struct {
	src  string
	expr hclsyntax.Expression
}

func Compile(src string) (*Expr, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "formula", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("formula %q: %s", src, diags.Error())
	}
	return &Expr{src: src, expr: expr}, nil
}

func MustCompile(src string) *Expr {
	e, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Expr) String() string { return e.src }

// Variables returns the distinct root names the expression references.
func (e *Expr) Variables() []string {
	seen := map[string]bool{}
	var names []string
	for _, tr := range e.expr.Variables() {
		name := tr.RootName()
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (e *Expr) Eval(env map[string]float64) (float64, error) {
	vars := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vars[k] = cty.NumberFloatVal(v)
	}
	ctx := &hcl.EvalContext{Variables: vars, Functions: functions}

	val, diags := e.expr.Value(ctx)
	if diags.HasErrors() {
		return 0, fmt.Errorf("formula %q: %s", e.src, diags.Error())
	}
	if val.IsNull() || !val.IsKnown() || val.Type() != cty.Number {
		return 0, fmt.Errorf("formula %q: result is %s, not a number", e.src, val.Type().FriendlyName())
	}

	bf := val.AsBigFloat()
	if bf.IsInf() {
		return 0, fmt.Errorf("%w: %q", ErrNotFinite, e.src)
	}
	var f float64
	if err := gocty.FromCtyValue(val, &f); err != nil {
		return 0, fmt.Errorf("formula %q: %w", e.src, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotFinite, e.src)
	}
	return f, nil
}

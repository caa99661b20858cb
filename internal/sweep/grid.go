package sweep

import (
	"fmt"
	"strings"
)

// Point is one combination of sweep variable values.
type Point struct {
	Index  int
	Names  []string
	Values []float64
}

func (p Point) Env() map[string]float64 {
	env := make(map[string]float64, len(p.Names))
	for i, n := range p.Names {
		env[n] = p.Values[i]
	}
	return env
}

func (p Point) String() string {
	parts := make([]string, len(p.Names))
	for i, n := range p.Names {
		parts[i] = n + "=" + FormatValue(p.Values[i])
	}
	return strings.Join(parts, " ")
}

// Points expands the cross product of vars. The first variable is the
// outermost loop, so the last one changes fastest.
func Points(vars []Variable) []Point {
	if len(vars) == 0 {
		return nil
	}
	names := make([]string, len(vars))
	n := 1
	for i, v := range vars {
		names[i] = v.Name
		n *= len(v.Values)
	}

	points := make([]Point, 0, n)
	points = expand(vars, names, 0, make([]float64, 0, len(vars)), points)
	return points
}

func expand(vars []Variable, names []string, depth int, current []float64, out []Point) []Point {
	if depth == len(vars) {
		values := make([]float64, len(current))
		copy(values, current)
		return append(out, Point{Index: len(out), Names: names, Values: values})
	}
	for _, val := range vars[depth].Values {
		out = expand(vars, names, depth+1, append(current, val), out)
	}
	return out
}

// PointAt returns the point with the given zero-based index without
// expanding the whole grid.
func PointAt(vars []Variable, index int) (Point, error) {
	total := 1
	for _, v := range vars {
		total *= len(v.Values)
	}
	if len(vars) == 0 || index < 0 || index >= total {
		return Point{}, fmt.Errorf("point %d out of range [0,%d)", index, total)
	}

	names := make([]string, len(vars))
	values := make([]float64, len(vars))
	rem := index
	for i := len(vars) - 1; i >= 0; i-- {
		names[i] = vars[i].Name
		n := len(vars[i].Values)
		values[i] = vars[i].Values[rem%n]
		rem /= n
	}
	return Point{Index: index, Names: names, Values: values}, nil
}

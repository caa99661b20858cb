package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rdsweep/internal/sweep"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Red,
	asciigraph.Green,
	asciigraph.Yellow,
	asciigraph.Blue,
	asciigraph.Magenta,
	asciigraph.Cyan,
	asciigraph.White,
}

type PlotOptions struct {
	Height int
	Width  int
}

// Series is one line of a plot: the metric against the inner variable for a
// fixed value of the outer variable.
type Series struct {
	Key    float64
	X      []float64
	Values []float64
}

// GroupSeries splits metric into one series per distinct value of the by
// column, in first-seen order. x names the column plotted along the axis.
func GroupSeries(t *sweep.Table, by, x, metric string) ([]Series, error) {
	byCol, ok := t.Column(by)
	if !ok {
		return nil, fmt.Errorf("no column %q", by)
	}
	xCol, ok := t.Column(x)
	if !ok {
		return nil, fmt.Errorf("no column %q", x)
	}
	mCol, ok := t.Column(metric)
	if !ok {
		return nil, fmt.Errorf("no column %q", metric)
	}

	index := map[float64]int{}
	series := make([]Series, 0)
	for i, key := range byCol {
		j, ok := index[key]
		if !ok {
			j = len(series)
			index[key] = j
			series = append(series, Series{Key: key})
		}
		series[j].X = append(series[j].X, xCol[i])
		series[j].Values = append(series[j].Values, mCol[i])
	}
	return series, nil
}

// PlotMetric draws metric against x with one colored line per value of by.
func PlotMetric(t *sweep.Table, by, x, metric string, opts PlotOptions) (string, error) {
	if len(t.Rows) == 0 {
		return "", fmt.Errorf("no data to plot")
	}
	series, err := GroupSeries(t, by, x, metric)
	if err != nil {
		return "", err
	}
	if opts.Height <= 0 {
		opts.Height = 15
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}

	data := make([][]float64, len(series))
	colors := make([]asciigraph.AnsiColor, len(series))
	legend := make([]string, len(series))
	for i, s := range series {
		data[i] = s.Values
		colors[i] = seriesColors[i%len(seriesColors)]
		legend[i] = fmt.Sprintf("%s%s=%s%s", colors[i], by, sweep.FormatValue(s.Key), asciigraph.Default)
	}

	caption := fmt.Sprintf("%s vs %s", metric, x)
	if len(series[0].X) > 0 {
		caption += fmt.Sprintf(" (%s … %s)", sweep.FormatValue(series[0].X[0]), sweep.FormatValue(series[0].X[len(series[0].X)-1]))
	}

	graph := asciigraph.PlotMany(data,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption(caption),
	)
	return graph + "\n" + strings.Join(legend, "  "), nil
}

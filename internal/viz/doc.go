// Package viz renders sweep results and progress in the terminal.
//
//   - [RenderTable]: a result table with lipgloss borders
//   - [RenderRuns]: the run archive listing
//   - [PlotMetric]: one asciigraph series per outer sweep value
//   - [ProgressModel]: a Bubble Tea view fed by sweep events (run --live)
//
// # Key Bindings
//
//	q, ctrl+c - cancel the sweep and quit
package viz

package sweep

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/rdsweep/internal/simulator"
	"github.com/san-kum/rdsweep/internal/summary"
	"github.com/san-kum/rdsweep/internal/template"
	"pkt.systems/pslog"
)

// Invoker runs the simulator on a rendered input. inputPath is relative to
// the driver's work directory, which is also where the simulator runs.
type Invoker interface {
	Run(ctx context.Context, inputPath string) simulator.Completion
}

type Config struct {
	Plan     *Plan
	Template *template.Template
	Invoker  Invoker
	// WorkDir holds the rendered inputs and the simulator's summary.
	WorkDir     string
	SummaryName string
	// PerPoint names each rendered input after its point instead of
	// overwriting one shared file.
	PerPoint   bool
	FailOnExit bool
	Logger     pslog.Base
}

type Driver struct {
	plan        *Plan
	tmpl        *template.Template
	invoker     Invoker
	workDir     string
	summaryName string
	perPoint    bool
	failOnExit  bool
	logger      pslog.Base
	observers   []Observer
}

func New(cfg Config) (*Driver, error) {
	if cfg.Plan == nil {
		return nil, fmt.Errorf("%w: nil plan", ErrInvalidPlan)
	}
	if err := cfg.Plan.Validate(); err != nil {
		return nil, err
	}
	if cfg.Template == nil {
		return nil, errors.New("sweep: no template")
	}
	if cfg.Invoker == nil {
		return nil, errors.New("sweep: no simulator")
	}

	d := &Driver{
		plan:        cfg.Plan,
		tmpl:        cfg.Template,
		invoker:     cfg.Invoker,
		workDir:     cfg.WorkDir,
		summaryName: cfg.SummaryName,
		perPoint:    cfg.PerPoint,
		failOnExit:  cfg.FailOnExit,
		logger:      cfg.Logger,
		observers:   make([]Observer, 0),
	}
	if d.summaryName == "" {
		d.summaryName = simulator.DefaultSummaryName
	}
	if d.logger == nil {
		d.logger = pslog.NewStructured(io.Discard)
	}
	return d, nil
}

func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }

func (d *Driver) Plan() *Plan { return d.plan }

// InputName is the rendered input file name for the point at index.
func (d *Driver) InputName(index int) string {
	base := filepath.Base(d.tmpl.Path)
	if d.tmpl.Path == "" {
		base = "input.txt"
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if d.perPoint {
		return fmt.Sprintf("%s-%04d%s", stem, index+1, ext)
	}
	return stem + "-updated" + ext
}

func (d *Driver) SummaryPath() string {
	return filepath.Join(d.workDir, d.summaryName)
}

// Render writes the input for pt without invoking the simulator and returns
// its path.
func (d *Driver) Render(pt Point) (string, error) {
	env, err := d.plan.Evaluate(pt)
	if err != nil {
		return "", &PointError{Point: pt, Wrapped: err}
	}
	path := filepath.Join(d.workDir, d.InputName(pt.Index))
	if err := template.WriteFile(path, d.tmpl.Render(d.plan.Substitutions(env))); err != nil {
		return "", &PointError{Point: pt, Wrapped: err}
	}
	return path, nil
}

// Run visits every point in order and stops at the first failure. The table
// is only returned once all points have completed.
func (d *Driver) Run(ctx context.Context) (*Table, error) {
	points := Points(d.plan.Variables)
	table := NewTable(d.plan.Header())

	d.logger.Info("sweep start", "plan", d.plan.String(), "points", len(points))
	for _, pt := range points {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ev := d.runPoint(ctx, pt, len(points))
		for _, o := range d.observers {
			o.OnPoint(ev)
		}
		if ev.Err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			d.logger.Error("point failed", "point", pt.Index+1, "err", ev.Err)
			return nil, ev.Err
		}
		if err := table.Append(ev.Row); err != nil {
			return nil, &PointError{Point: pt, Completion: ev.Completion, Wrapped: err}
		}
	}
	d.logger.Info("sweep done", "rows", len(table.Rows))
	return table, nil
}

func (d *Driver) runPoint(ctx context.Context, pt Point, total int) Event {
	ev := Event{
		Point:       pt,
		Total:       total,
		InputPath:   filepath.Join(d.workDir, d.InputName(pt.Index)),
		SummaryPath: d.SummaryPath(),
	}
	fail := func(err error) Event {
		ev.Err = &PointError{Point: pt, Completion: ev.Completion, Wrapped: err}
		return ev
	}

	env, err := d.plan.Evaluate(pt)
	if err != nil {
		return fail(err)
	}
	ev.Values = env

	if err := template.WriteFile(ev.InputPath, d.tmpl.Render(d.plan.Substitutions(env))); err != nil {
		return fail(err)
	}

	// A summary left over from the previous point must not be mistaken
	// for this point's result.
	if err := os.Remove(ev.SummaryPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fail(err)
	}

	ev.Completion = d.invoker.Run(ctx, d.InputName(pt.Index))
	c := ev.Completion

	if _, err := os.Stat(ev.SummaryPath); err != nil {
		cause := fmt.Errorf("%w: %s (exit %d)", ErrReportMissing, ev.SummaryPath, c.ExitCode)
		if c.Err != nil {
			cause = fmt.Errorf("%w: %s (%v)", ErrReportMissing, ev.SummaryPath, c.Err)
		}
		return fail(cause)
	}
	if !c.Succeeded() {
		if d.failOnExit {
			return fail(fmt.Errorf("%w: exit %d", ErrSimulatorExit, c.ExitCode))
		}
		d.logger.Warn("simulator exit status", "point", pt.Index+1, "exit", c.ExitCode, "err", c.Err)
	}

	rep, err := summary.Extract(ev.SummaryPath, d.plan.Metrics)
	if err != nil {
		return fail(err)
	}

	row, err := d.plan.Row(env, rep)
	if err != nil {
		return fail(err)
	}
	ev.Row = row

	kv := []any{"point", pt.Index + 1, "of", total}
	for i, n := range pt.Names {
		kv = append(kv, n, pt.Values[i])
	}
	kv = append(kv, "exit", c.ExitCode, "dur", c.Duration.String())
	for i, n := range rep.Names {
		kv = append(kv, n, rep.Values[i])
	}
	d.logger.Info("point", kv...)
	return ev
}

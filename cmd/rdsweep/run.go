package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/san-kum/rdsweep/internal/config"
	"github.com/san-kum/rdsweep/internal/simulator"
	"github.com/san-kum/rdsweep/internal/storage"
	"github.com/san-kum/rdsweep/internal/sweep"
	"github.com/san-kum/rdsweep/internal/template"
	"github.com/san-kum/rdsweep/internal/viz"
)

// sweepFlags are the config overrides shared by run and render.
type sweepFlags struct {
	preset     string
	template   string
	output     string
	workDir    string
	command    []string
	inputFlag  string
	summary    string
	perPoint   bool
	failOnExit bool
}

func (f *sweepFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.preset, "preset", "", "start from a preset sweep")
	cmd.Flags().StringVar(&f.template, "template", config.DefaultTemplate, "simulator input template")
	cmd.Flags().StringVar(&f.output, "output", config.DefaultOutput, "result CSV path")
	cmd.Flags().StringVar(&f.workDir, "work-dir", config.DefaultWorkDir, "directory the simulator runs in")
	cmd.Flags().StringSliceVar(&f.command, "command", nil, "simulator command, comma separated (default java,-jar,raddose3d.jar)")
	cmd.Flags().StringVar(&f.inputFlag, "input-flag", simulator.DefaultInputFlag, "flag preceding the input path")
	cmd.Flags().StringVar(&f.summary, "summary", simulator.DefaultSummaryName, "summary file the simulator writes")
	cmd.Flags().BoolVar(&f.perPoint, "per-point", false, "write one input file per point")
	cmd.Flags().BoolVar(&f.failOnExit, "fail-on-exit", false, "abort on a non-zero simulator exit")
}

// resolve layers defaults, preset, config file and changed flags, in that
// order, and returns the config with a run name.
func (f *sweepFlags) resolve(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	name := "beam-ratio"
	cfg := config.DefaultConfig()
	if f.preset != "" {
		cfg = config.GetPreset(f.preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets())
		}
		name = f.preset
	}

	if len(args) > 0 {
		var err error
		cfg, err = config.LoadOver(args[0], cfg)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}

	flags := cmd.Flags()
	if flags.Changed("template") {
		cfg.Template = f.template
	}
	if flags.Changed("output") {
		cfg.Output = f.output
	}
	if flags.Changed("work-dir") {
		cfg.WorkDir = f.workDir
	}
	if flags.Changed("command") {
		cfg.Simulator.Command = f.command
	}
	if flags.Changed("input-flag") {
		cfg.Simulator.InputFlag = f.inputFlag
	}
	if flags.Changed("summary") {
		cfg.Simulator.Summary = f.summary
	}
	if flags.Changed("per-point") {
		cfg.PerPointInputs = f.perPoint
	}
	if flags.Changed("fail-on-exit") {
		cfg.Simulator.FailOnExit = f.failOnExit
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func newDriver(cfg *config.Config, tmpl *template.Template, logger pslog.Base) (*sweep.Driver, error) {
	plan, err := cfg.Plan()
	if err != nil {
		return nil, err
	}
	runner := simulator.New(cfg.Simulator.Command,
		simulator.WithInputFlag(cfg.Simulator.InputFlag),
		simulator.WithDir(cfg.WorkDir),
		simulator.WithLogger(logger),
	)
	return sweep.New(sweep.Config{
		Plan:        plan,
		Template:    tmpl,
		Invoker:     runner,
		WorkDir:     cfg.WorkDir,
		SummaryName: cfg.Simulator.Summary,
		PerPoint:    cfg.PerPointInputs,
		FailOnExit:  cfg.Simulator.FailOnExit,
		Logger:      logger,
	})
}

func newRunCmd() *cobra.Command {
	flags := &sweepFlags{}
	var name string
	var live bool

	cmd := &cobra.Command{
		Use:   "run [config]",
		Short: "run a sweep and write the result table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, runName, err := flags.resolve(cmd, args)
			if err != nil {
				return err
			}
			if name != "" {
				runName = name
			}
			return runSweep(cmd, cfg, runName, live)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "run name (default preset or config file name)")
	cmd.Flags().BoolVar(&live, "live", false, "show live progress")
	return cmd
}

func runSweep(cmd *cobra.Command, cfg *config.Config, name string, live bool) error {
	logger := loggerFromCmd(cmd)

	// Everything that can fail before the first invocation is checked
	// before a run directory exists.
	tmpl, err := template.Load(cfg.Template)
	if err != nil {
		return err
	}
	plan, err := cfg.Plan()
	if err != nil {
		return err
	}
	snapshot, err := cfg.Marshal()
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	started := time.Now()
	runID, err := st.Begin(name, started)
	if err != nil {
		return err
	}

	meta := storage.RunMetadata{
		ID:        runID,
		Name:      name,
		Timestamp: started,
		Template:  cfg.Template,
		Command:   cfg.Simulator.Command,
		Plan:      plan.String(),
		Points:    plan.Size(),
		Config:    string(snapshot),
	}
	abort := func(err error) error {
		meta.Finished = time.Now()
		meta.Failure = err.Error()
		if saveErr := st.Save(meta, nil); saveErr != nil {
			logger.Warn("failed to record aborted run", "run", runID, "err", saveErr)
		}
		return err
	}

	var sweepLogger pslog.Base = logger.With("run", runID)
	if live {
		logFile, err := os.Create(filepath.Join(st.RunDir(runID), "sweep.log"))
		if err != nil {
			return abort(err)
		}
		defer logFile.Close()
		fileLogger, err := loggerFromFlags(cmd, logFile)
		if err != nil {
			return abort(err)
		}
		sweepLogger = fileLogger.With("run", runID)
	}

	drv, err := newDriver(cfg, tmpl, sweepLogger)
	if err != nil {
		return abort(err)
	}

	archive := storage.NewPointArchive(st.PointsDir(runID))
	drv.AddObserver(archive)

	var simTime time.Duration
	completed := 0
	drv.AddObserver(sweep.ObserverFunc(func(ev sweep.Event) {
		simTime += ev.Completion.Duration
		if ev.Err == nil {
			completed++
		}
	}))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var table *sweep.Table
	if live {
		table, err = runLive(ctx, drv, fmt.Sprintf("%s  %s", runID, drv.Plan().String()))
	} else {
		table, err = drv.Run(ctx)
	}

	meta.Completed = completed
	meta.SimulatorSec = simTime.Seconds()
	if err != nil {
		return abort(err)
	}
	meta.Finished = time.Now()
	if err := archive.Err(); err != nil {
		logger.Warn("point archive incomplete", "run", runID, "err", err)
	}

	if err := storage.WriteCSV(cfg.Output, table); err != nil {
		return abort(fmt.Errorf("write %s: %w", cfg.Output, err))
	}
	meta.Output = cfg.Output
	if err := st.Save(meta, table); err != nil {
		return err
	}

	logger.Info("sweep saved", "run", runID, "rows", len(table.Rows), "output", cfg.Output, "elapsed", time.Since(started).Round(time.Millisecond).String())
	return nil
}

// runLive drives the sweep behind a Bubble Tea progress view. Quitting the
// view cancels the sweep.
func runLive(ctx context.Context, drv *sweep.Driver, title string) (*sweep.Table, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := viz.NewProgressModel(title, drv.Plan().Header(), drv.Plan().Size(), cancel)
	p := tea.NewProgram(m)
	drv.AddObserver(viz.Forward(p))

	var table *sweep.Table
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		table, runErr = drv.Run(ctx)
		rows := 0
		if table != nil {
			rows = len(table.Rows)
		}
		p.Send(viz.DoneMsg{Rows: rows, Err: runErr})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, err
	}
	<-done
	return table, runErr
}

func newRenderCmd() *cobra.Command {
	flags := &sweepFlags{}
	var point int

	cmd := &cobra.Command{
		Use:   "render [config]",
		Short: "write the simulator input for one point without running it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := flags.resolve(cmd, args)
			if err != nil {
				return err
			}
			tmpl, err := template.Load(cfg.Template)
			if err != nil {
				return err
			}
			drv, err := newDriver(cfg, tmpl, loggerFromCmd(cmd))
			if err != nil {
				return err
			}
			pt, err := sweep.PointAt(drv.Plan().Variables, point-1)
			if err != nil {
				return err
			}
			path, err := drv.Render(pt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "point %d (%s) -> %s\n", point, pt, path)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&point, "point", 1, "point number, starting at 1")
	return cmd
}

package simulator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"pkt.systems/pslog"
)

const (
	DefaultInputFlag   = "-i"
	DefaultSummaryName = "output-Summary.csv"
)

// Completion describes how one invocation ended. A failed start leaves
// ExitCode at -1 with Err set.
// maxLineSize bounds one logged line of simulator output. Longer lines stop
// the line logging for that stream; the output is still consumed.
const maxLineSize = 1024 * 1024

type Completion struct {
	Command  []string
	ExitCode int
	Duration time.Duration
	Err      error
}

func (c Completion) Succeeded() bool {
	return c.Err == nil && c.ExitCode == 0
}

type Runner struct {
	command   []string
	inputFlag string
	dir       string
	logger    pslog.Base
}

type Option func(*Runner)

// WithInputFlag changes the flag that precedes the rendered input path.
// An empty flag passes the path as a bare argument.
func WithInputFlag(flag string) Option {
	return func(r *Runner) { r.inputFlag = flag }
}

// WithDir sets the working directory the simulator writes its summary into.
func WithDir(dir string) Option {
	return func(r *Runner) { r.dir = dir }
}

func WithLogger(logger pslog.Base) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func New(command []string, opts ...Option) *Runner {
	r := &Runner{
		command:   command,
		inputFlag: DefaultInputFlag,
		logger:    pslog.NewStructured(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run invokes the simulator on inputPath and waits for it to exit. Exit
// status is reported, never raised: the caller judges success by the
// summary the simulator leaves behind.
func (r *Runner) Run(ctx context.Context, inputPath string) Completion {
	args := r.args(inputPath)
	c := Completion{Command: args, ExitCode: -1}
	if len(r.command) == 0 {
		c.Err = errors.New("simulator: no command configured")
		return c
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = r.dir

	stdout, _ := cmd.StdoutPipe()
	stderr, _ := cmd.StderrPipe()

	start := time.Now()
	if err := cmd.Start(); err != nil {
		c.Err = fmt.Errorf("simulator start: %w", err)
		return c
	}

	var wg sync.WaitGroup
	logStream := func(stream string, rdr io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(rdr)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		for scanner.Scan() {
			r.logger.Debug("simulator", "stream", stream, "msg", scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			r.logger.Debug("simulator", "stream", stream, "scan_err", err)
		}
		// The child blocks on a full pipe unless the rest is read.
		_, _ = io.Copy(io.Discard, rdr)
	}
	wg.Add(2)
	go logStream("stdout", stdout)
	go logStream("stderr", stderr)

	// Pipes must be drained before Wait closes them.
	wg.Wait()
	err := cmd.Wait()
	c.Duration = time.Since(start)
	if cmd.ProcessState != nil {
		c.ExitCode = cmd.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		c.Err = fmt.Errorf("simulator wait: %w", err)
	}
	return c
}

func (r *Runner) args(inputPath string) []string {
	args := make([]string, 0, len(r.command)+2)
	args = append(args, r.command...)
	if r.inputFlag != "" {
		args = append(args, r.inputFlag)
	}
	return append(args, inputPath)
}

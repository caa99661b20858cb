package sweep_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/san-kum/rdsweep/internal/simulator"
)

// stubSimulator stands in for the external simulator: it records the
// rendered inputs it was handed and writes a fixed summary.
type stubSimulator struct {
	dir      string
	summary  string
	exitCode int
	// writeLimit stops writing summaries after this many calls; 0 means
	// always write.
	writeLimit int

	inputs []string
	names  []string
}

func newStub(dir string) *stubSimulator {
	return &stubSimulator{dir: dir, summary: "DWD,DiffractionEfficiency\n3.0,0.9\n"}
}

func (s *stubSimulator) Run(ctx context.Context, inputPath string) simulator.Completion {
	data, _ := os.ReadFile(filepath.Join(s.dir, inputPath))
	s.inputs = append(s.inputs, string(data))
	s.names = append(s.names, inputPath)

	if s.writeLimit == 0 || len(s.inputs) <= s.writeLimit {
		_ = os.WriteFile(filepath.Join(s.dir, simulator.DefaultSummaryName), []byte(s.summary), 0644)
	}
	return simulator.Completion{Command: []string{"stub", "-i", inputPath}, ExitCode: s.exitCode}
}

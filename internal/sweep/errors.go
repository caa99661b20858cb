package sweep

import (
	"errors"
	"fmt"

	"github.com/san-kum/rdsweep/internal/simulator"
)

var (
	// ErrInvalidPlan indicates an inconsistent sweep declaration.
	ErrInvalidPlan = errors.New("sweep: invalid plan")

	// ErrReportMissing indicates the simulator returned without leaving a summary.
	ErrReportMissing = errors.New("sweep: simulator summary missing")

	// ErrSimulatorExit indicates a non-zero exit status while exit codes are enforced.
	ErrSimulatorExit = errors.New("sweep: simulator exited with non-zero status")
)

// PointError wraps a failure with the sweep point it happened at.
type PointError struct {
	Point      Point
	Completion simulator.Completion
	Wrapped    error
}

func (e *PointError) Error() string {
	return fmt.Sprintf("point %d (%s): %v", e.Point.Index+1, e.Point, e.Wrapped)
}

func (e *PointError) Unwrap() error {
	return e.Wrapped
}

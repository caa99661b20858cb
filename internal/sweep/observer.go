package sweep

import "github.com/san-kum/rdsweep/internal/simulator"

// Event reports one finished point. Err is set when the point failed and the
// sweep is about to abort.
type Event struct {
	Point       Point
	Total       int
	Values      map[string]float64
	InputPath   string
	SummaryPath string
	Completion  simulator.Completion
	Row         Row
	Err         error
}

type Observer interface {
	OnPoint(ev Event)
}

type ObserverFunc func(ev Event)

func (f ObserverFunc) OnPoint(ev Event) { f(ev) }

package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/san-kum/rdsweep/internal/sweep"
)

// PointArchive keeps a copy of every point's rendered input and simulator
// summary so each one stays addressable after the next point overwrites the
// shared files.
type PointArchive struct {
	dir string
	err error
}

func NewPointArchive(dir string) *PointArchive {
	return &PointArchive{dir: dir}
}

func (a *PointArchive) OnPoint(ev sweep.Event) {
	if ev.Err != nil || a.err != nil {
		return
	}
	if err := os.MkdirAll(a.dir, 0755); err != nil {
		a.err = err
		return
	}
	name := fmt.Sprintf("%04d-%s", ev.Point.Index+1, filepath.Base(ev.SummaryPath))
	if err := copyFile(ev.SummaryPath, filepath.Join(a.dir, name)); err != nil {
		a.err = err
		return
	}
	name = fmt.Sprintf("%04d-%s", ev.Point.Index+1, filepath.Base(ev.InputPath))
	if err := copyFile(ev.InputPath, filepath.Join(a.dir, name)); err != nil {
		a.err = err
	}
}

// Err reports the first copy failure, if any.
func (a *PointArchive) Err() error { return a.err }

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/rdsweep/internal/sweep"
)

const (
	metadataFile = "metadata.json"
	resultsFile  = "results.csv"
	pointsDir    = "points"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Timestamp    time.Time `json:"timestamp"`
	Finished     time.Time `json:"finished"`
	Template     string    `json:"template"`
	Command      []string  `json:"command"`
	Plan         string    `json:"plan"`
	Points       int       `json:"points"`
	Completed    int       `json:"completed"`
	SimulatorSec float64   `json:"simulator_sec"`
	Output       string    `json:"output,omitempty"`
	Failure      string    `json:"failure,omitempty"`
	Config       string    `json:"config,omitempty"`
}

func (m RunMetadata) Succeeded() bool { return m.Failure == "" }

// Begin allocates a run directory. The returned id sorts by start time.
func (s *Store) Begin(name string, started time.Time) (string, error) {
	runID := fmt.Sprintf("%s_%d", name, started.Unix())
	runDir := filepath.Join(s.baseDir, runID)
	for i := 2; ; i++ {
		if _, err := os.Stat(runDir); os.IsNotExist(err) {
			break
		}
		runID = fmt.Sprintf("%s_%d_%d", name, started.Unix(), i)
		runDir = filepath.Join(s.baseDir, runID)
	}
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

func (s *Store) PointsDir(runID string) string {
	return filepath.Join(s.baseDir, runID, pointsDir)
}

// Save records the run's metadata and, for a finished sweep, its table. A
// nil table records an aborted run.
func (s *Store) Save(meta RunMetadata, table *sweep.Table) error {
	runDir := s.RunDir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	if table == nil {
		return nil
	}
	return WriteCSV(filepath.Join(runDir, resultsFile), table)
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTable(runID string) (*sweep.Table, error) {
	return ReadCSV(filepath.Join(s.baseDir, runID, resultsFile))
}

// WriteCSV writes the header and every row, replacing any existing file.
func WriteCSV(path string, table *sweep.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(table.Header); err != nil {
		f.Close()
		return err
	}
	for _, row := range table.Rows {
		if err := w.Write(row.Strings()); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ReadCSV(path string) (*sweep.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no header", path)
	}

	table := sweep.NewTable(records[0])
	for i, rec := range records[1:] {
		row := make(sweep.Row, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %d: %w", path, i+1, j+1, err)
			}
			row[j] = v
		}
		if err := table.Append(row); err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i+1, err)
		}
	}
	return table, nil
}

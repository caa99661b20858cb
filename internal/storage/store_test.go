package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/san-kum/rdsweep/internal/simulator"
	"github.com/san-kum/rdsweep/internal/sweep"
)

var header = []string{"Crystal Size", "ppm", "Beam size", "Beam ratio", "DWD", "DE"}

func sampleTable() *sweep.Table {
	return &sweep.Table{
		Header: header,
		Rows: []sweep.Row{
			{1, 20, 1, 1, 3, 0.9},
			{2, 10, 2, 1, 3, 0.9},
		},
	}
}

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestWriteCSVGolden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beam-ratio.csv")
	if err := WriteCSV(path, sampleTable()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	newGolden(t).Assert(t, "beam_ratio", data)
}

func TestWriteCSVHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beam-ratio.csv")
	if err := WriteCSV(path, sweep.NewTable(header)); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	newGolden(t).Assert(t, "header_only", data)
}

func TestWriteCSVOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beam-ratio.csv")
	if err := os.WriteFile(path, []byte("old,contents\n1,2\n3,4\n5,6\n7,8\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteCSV(path, sweep.NewTable([]string{"a"})); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "a\n" {
		t.Errorf("expected file replaced, got %q", data)
	}
}

func TestWriteCSVDeterministic(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv")
	if err := WriteCSV(a, sampleTable()); err != nil {
		t.Fatal(err)
	}
	if err := WriteCSV(b, sampleTable()); err != nil {
		t.Fatal(err)
	}
	da, _ := os.ReadFile(a)
	db, _ := os.ReadFile(b)
	if string(da) != string(db) {
		t.Errorf("expected identical output:\n%s\n%s", da, db)
	}
}

func TestWriteCSVUnwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "beam-ratio.csv")
	if err := WriteCSV(path, sampleTable()); err == nil {
		t.Error("expected error for unwritable path")
	}
}

func TestReadCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beam-ratio.csv")
	if err := WriteCSV(path, sampleTable()); err != nil {
		t.Fatal(err)
	}
	table, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(table.Rows) != 2 || table.Rows[1][1] != 10 {
		t.Errorf("unexpected table %+v", table)
	}
	if table.Header[0] != "Crystal Size" {
		t.Errorf("unexpected header %v", table.Header)
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	runID, err := st.Begin("beam-ratio", started)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      "beam-ratio",
		Timestamp: started,
		Command:   []string{"java", "-jar", "raddose3d.jar"},
		Points:    2,
		Completed: 2,
	}
	if err := st.Save(meta, sampleTable()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Name != "beam-ratio" || loaded.Points != 2 {
		t.Errorf("unexpected metadata %+v", loaded)
	}
	if !loaded.Succeeded() {
		t.Error("expected successful run")
	}

	table, err := st.LoadTable(runID)
	if err != nil {
		t.Fatalf("load table failed: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(table.Rows))
	}
}

func TestStoreBeginUnique(t *testing.T) {
	st := New(t.TempDir())
	started := time.Unix(1700000000, 0)

	first, err := st.Begin("run", started)
	if err != nil {
		t.Fatal(err)
	}
	second, err := st.Begin("run", started)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Errorf("expected distinct run ids, got %s twice", first)
	}
}

func TestStoreListAbortedRun(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	runID, _ := st.Begin("beam-ratio", time.Unix(1700000000, 0))
	meta := RunMetadata{ID: runID, Points: 84, Completed: 3, Failure: "point 4: summary missing"}
	if err := st.Save(meta, nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 || runs[0].Succeeded() {
		t.Fatalf("expected one failed run, got %+v", runs)
	}
	if _, err := os.Stat(filepath.Join(st.RunDir(runID), resultsFile)); !os.IsNotExist(err) {
		t.Error("aborted run must not have a results table")
	}
}

func TestPointArchive(t *testing.T) {
	work := t.TempDir()
	summaryPath := filepath.Join(work, simulator.DefaultSummaryName)
	inputPath := filepath.Join(work, "input-updated.txt")
	archive := NewPointArchive(filepath.Join(t.TempDir(), "points"))

	for i, dwd := range []string{"1.0", "2.0"} {
		os.WriteFile(summaryPath, []byte("DWD\n"+dwd+"\n"), 0644)
		os.WriteFile(inputPath, []byte("size "+dwd+"\n"), 0644)
		archive.OnPoint(sweep.Event{
			Point:       sweep.Point{Index: i},
			InputPath:   inputPath,
			SummaryPath: summaryPath,
		})
	}
	if err := archive.Err(); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(archive.dir, "0001-"+simulator.DefaultSummaryName))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "DWD\n1.0\n" {
		t.Errorf("unexpected first summary %q", data)
	}
	if _, err := os.Stat(filepath.Join(archive.dir, "0002-input-updated.txt")); err != nil {
		t.Errorf("expected archived input: %v", err)
	}
}

func TestPointArchiveSkipsFailedPoints(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "points")
	archive := NewPointArchive(dir)
	archive.OnPoint(sweep.Event{Err: os.ErrNotExist, SummaryPath: "missing.csv"})
	if archive.Err() != nil {
		t.Errorf("unexpected error %v", archive.Err())
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("expected no archive directory for failed point")
	}
}

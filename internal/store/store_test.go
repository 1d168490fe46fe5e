package store

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pneurig/internal/config"
	"pneurig/internal/snapshot"
)

func sampleFrames(n int) []snapshot.Snapshot {
	frames := make([]snapshot.Snapshot, n)
	for i := range frames {
		frames[i] = snapshot.Snapshot{
			Seq:              uint64(i + 1),
			SimTime:          float64(i) * 0.016,
			ReceiverPressure: 6e5,
		}
		for j, name := range config.CornerNames {
			frames[i].Corners[j] = snapshot.CornerState{
				Name:         name,
				HeadPressure: 2e5,
				RodPressure:  1.5e5,
			}
		}
	}
	return frames
}

func TestSaveAndLoad(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	runID, err := s.Save("stock", config.DefaultConfig(), sampleFrames(10))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	meta, err := s.Load(runID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if meta.Preset != "stock" {
		t.Errorf("preset %q", meta.Preset)
	}
	if meta.Frames != 10 {
		t.Errorf("frames %d", meta.Frames)
	}
}

func TestSaveWritesFrameCSV(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	runID, err := s.Save("stock", config.DefaultConfig(), sampleFrames(3))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, runID, "frames.csv"))
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 4 { // header + 3 frames
		t.Fatalf("expected 4 rows, got %d", len(records))
	}
	// seq + time + 4 corners x 4 columns + receiver.
	if len(records[0]) != 19 {
		t.Errorf("expected 19 columns, got %d", len(records[0]))
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("no space left on device")
}

func TestWriteFramesPropagatesWriteError(t *testing.T) {
	if err := writeFrames(failingWriter{}, sampleFrames(3)); err == nil {
		t.Fatal("expected a write error to fail the save")
	}
}

func TestListEmptyDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing"))
	runs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestListFindsRuns(t *testing.T) {
	s := New(t.TempDir())
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, err := s.Save("stock", config.DefaultConfig(), sampleFrames(2)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := s.Save("loaded", config.DefaultConfig(), sampleFrames(2)); err != nil {
		t.Fatalf("save: %v", err)
	}

	runs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

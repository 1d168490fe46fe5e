// Package store records simulation runs on disk: one directory per run with
// a JSON metadata file and a CSV of published frames.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"pneurig/internal/config"
	"pneurig/internal/snapshot"
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

// RunMetadata summarizes one recorded run.
type RunMetadata struct {
	ID          string    `json:"id"`
	Preset      string    `json:"preset"`
	Timestamp   time.Time `json:"timestamp"`
	PhysicsDt   float64   `json:"physics_dt"`
	Duration    float64   `json:"duration"`
	ThermoMode  string    `json:"thermo_mode"`
	Frames      int       `json:"frames"`
	Overruns    uint64    `json:"overruns"`
	DroppedTime float64   `json:"dropped_time"`
	Unreachable uint64    `json:"unreachable_events"`
}

// Save writes the run under a timestamped directory and returns its ID.
func (s *Store) Save(preset string, cfg config.Config, frames []snapshot.Snapshot) (string, error) {
	runID := fmt.Sprintf("%s_%d", preset, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Preset:     preset,
		Timestamp:  time.Now(),
		PhysicsDt:  cfg.Scheduling.PhysicsDt,
		ThermoMode: cfg.Pneumatic.ThermoMode,
		Frames:     len(frames),
	}
	if n := len(frames); n > 0 {
		last := frames[n-1]
		meta.Duration = last.SimTime
		meta.Overruns = last.Diag.Overruns
		meta.DroppedTime = last.Diag.DroppedTime
		meta.Unreachable = last.Diag.UnreachableEvents
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "frames.csv"))
	if err != nil {
		return "", err
	}
	if err := writeFrames(csvFile, frames); err != nil {
		csvFile.Close()
		return "", err
	}
	if err := csvFile.Close(); err != nil {
		return "", err
	}

	return runID, nil
}

// writeFrames streams the frame table as CSV. The flush is explicit so a
// short write (disk full, closed pipe) fails the save instead of recording a
// truncated file behind a success.
func writeFrames(dst io.Writer, frames []snapshot.Snapshot) error {
	w := csv.NewWriter(dst)

	header := []string{"seq", "time"}
	for _, name := range config.CornerNames {
		header = append(header,
			name+"_angle", name+"_piston", name+"_head_pa", name+"_rod_pa")
	}
	header = append(header, "receiver_pa")
	if err := w.Write(header); err != nil {
		return err
	}

	for _, f := range frames {
		row := []string{
			strconv.FormatUint(f.Seq, 10),
			strconv.FormatFloat(f.SimTime, 'f', 6, 64),
		}
		for _, c := range f.Corners {
			row = append(row,
				strconv.FormatFloat(c.LeverAngle, 'f', 6, 64),
				strconv.FormatFloat(c.PistonPosition, 'f', 6, 64),
				strconv.FormatFloat(c.HeadPressure, 'f', 1, 64),
				strconv.FormatFloat(c.RodPressure, 'f', 1, 64))
		}
		row = append(row, strconv.FormatFloat(f.ReceiverPressure, 'f', 1, 64))
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns metadata for all recorded runs, skipping unreadable entries.
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
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

// Load reads one run's metadata.
func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

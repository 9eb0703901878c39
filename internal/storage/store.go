package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/vesselsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	dataFile     = "data.txt"
)

var ErrRunNotFound = errors.New("storage: run not found")

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
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Timestamp  time.Time          `json:"timestamp"`
	Integrator string             `json:"integrator"`
	Points     int                `json:"points"`
	TStart     float64            `json:"t_start"`
	TEnd       float64            `json:"t_end"`
	Steps      int                `json:"steps"`
	Metrics    map[string]float64 `json:"metrics"`
}

func newRunID(scenario string, now time.Time) string {
	return fmt.Sprintf("%s_%d_%s", scenario, now.Unix(), uuid.NewString()[:8])
}

// Save writes the run directory and returns its id.
func (s *Store) Save(scenario, integrator string, result *sim.Result) (string, error) {
	now := time.Now()
	runID := newRunID(scenario, now)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Scenario:   scenario,
		Timestamp:  now,
		Integrator: integrator,
		Points:     result.Len(),
		Steps:      result.StepsTaken,
		Metrics:    result.Metrics,
	}
	if n := len(result.Times); n > 0 {
		meta.TStart = result.Times[0]
		meta.TEnd = result.Times[n-1]
	}

	if err := writeFile(filepath.Join(runDir, dataFile), func(w io.Writer) error {
		return WriteTable(w, result)
	}); err != nil {
		os.RemoveAll(runDir)
		return "", fmt.Errorf("write data table: %w", err)
	}

	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		os.RemoveAll(runDir)
		return "", fmt.Errorf("write metadata: %w", err)
	}

	return runID, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns stored runs, newest first. Directories without readable
// metadata are skipped.
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

// DataPath is the location of the run's data table.
func (s *Store) DataPath(runID string) string {
	return filepath.Join(s.baseDir, runID, dataFile)
}

// LoadResult reads a stored run back, metrics included.
func (s *Store) LoadResult(runID string) (*RunMetadata, *sim.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(s.DataPath(runID))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := ReadTable(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", runID, err)
	}

	res, err := ResultFromRows(rows)
	if err != nil {
		return nil, nil, err
	}
	res.StepsTaken = meta.Steps
	for k, v := range meta.Metrics {
		res.Metrics[k] = v
	}
	return meta, res, nil
}

// CopyTable writes the data table of res to path.
func CopyTable(path string, res *sim.Result) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteTable(w, res)
	})
}

package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Stage is one step of the per-year pipeline.
type Stage string

// Stages in run order.
const (
	StageCharts   Stage = "charts"
	StageMBIDs    Stage = "mbids"
	StageFeatures Stage = "features"
)

var stageOrder = []Stage{StageCharts, StageMBIDs, StageFeatures}

// after returns the stages that consume this stage's output.
func (s Stage) after() []Stage {
	for i, st := range stageOrder {
		if st == s {
			return stageOrder[i+1:]
		}
	}
	return nil
}

// StageRecord describes a completed stage.
type StageRecord struct {
	CompletedAt time.Time `json:"completed_at"`
	Rows        int       `json:"rows"`
	File        string    `json:"file"`
}

// State records which stages have completed for each year so an
// interrupted run picks up where it left off.
type State struct {
	mu       sync.RWMutex
	years    map[int]map[Stage]StageRecord
	filePath string // Path to state file for persistence
}

// persistedState is the JSON representation of state for disk storage
type persistedState struct {
	Years map[int]map[Stage]StageRecord `json:"years"`
}

// NewState creates a State, restoring it from filePath when the file
// exists. An unreadable file is reported but the returned State is usable
// and empty.
func NewState(filePath string) (*State, error) {
	s := &State{
		years:    make(map[int]map[Stage]StageRecord),
		filePath: filePath,
	}

	if filePath != "" {
		if err := s.restore(); err != nil && !os.IsNotExist(err) {
			return s, err
		}
	}

	return s, nil
}

// Completed returns the record for a finished stage.
func (s *State) Completed(year int, stage Stage) (StageRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.years[year][stage]
	return rec, ok
}

// MarkCompleted records a finished stage and persists the state. Later
// stages of the same year are forgotten, since they were built from the
// output this stage just replaced.
func (s *State) MarkCompleted(year int, stage Stage, rows int, file string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.years[year] == nil {
		s.years[year] = make(map[Stage]StageRecord)
	}
	for _, later := range stage.after() {
		delete(s.years[year], later)
	}
	s.years[year][stage] = StageRecord{
		CompletedAt: time.Now().UTC(),
		Rows:        rows,
		File:        file,
	}

	return s.persist()
}

// persist saves the current state to disk
// Must be called with lock held
func (s *State) persist() error {
	if s.filePath == "" {
		return nil
	}

	data, err := json.MarshalIndent(persistedState{Years: s.years}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return err
	}

	// Write atomically via temp file + rename
	tmpPath := s.filePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, s.filePath)
}

// restore loads state from disk
func (s *State) restore() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var ps persistedState
	if err := json.Unmarshal(data, &ps); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ps.Years != nil {
		s.years = ps.Years
	}

	return nil
}

package supervisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
)

// State records the companion process a supervisor spawned. The CLI reads it
// to discover which port to talk to.
type State struct {
	PID       int       `json:"pid"`
	Port      int       `json:"port"`
	Host      string    `json:"host"`
	StartedAt time.Time `json:"started_at"`
}

// ReadState loads a state file. A missing file returns os.ErrNotExist.
func ReadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("parse state file %s: %w", path, err)
	}
	return state, nil
}

// WriteState persists the state file atomically via a rename.
func WriteState(path string, state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// RemoveState deletes the state file, tolerating its absence.
func RemoveState(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Alive reports whether the recorded process still exists.
func (s State) Alive() bool {
	if s.PID <= 0 {
		return false
	}
	process, err := os.FindProcess(s.PID)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// Fresh reports whether the entry was written within the staleness window.
// A fresh entry with a live pid is trusted without probing its port; an old
// one must answer a health check before it is reused.
func (s State) Fresh(now time.Time, window time.Duration) bool {
	if s.StartedAt.IsZero() {
		return false
	}
	return window <= 0 || now.Sub(s.StartedAt) <= window
}

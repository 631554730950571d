// Package state persists the last known zone set between runs so a restarted
// monitor resumes diffing instead of reporting every zone as newly added.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/brightears/zonewatch/internal/syb"
)

// Snapshot is the persisted form of one discovery pass.
type Snapshot struct {
	TakenAt time.Time                   `json:"taken_at"`
	Zones   map[string]syb.ZoneSnapshot `json:"zones"`
}

var mu sync.Mutex

const stateFileName = "zonewatch_state.json"

func stateFilePath() string {
	if dir := os.Getenv("ZONEWATCH_STATE_DIR"); dir != "" {
		return filepath.Join(dir, stateFileName)
	}
	// Prefer a persistent location under /var/lib/zonewatch when possible; fall back to the
	// current working dir to avoid temp directories that may be cleared on reboot.
	defaultDir := "/var/lib/zonewatch"
	if err := os.MkdirAll(defaultDir, 0o755); err == nil {
		return filepath.Join(defaultDir, stateFileName)
	}
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, stateFileName)
	}
	return filepath.Join(os.TempDir(), stateFileName)
}

// loadUnlocked reads the state file WITHOUT acquiring the package mutex.
func loadUnlocked() (Snapshot, error) {
	p := stateFilePath()
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{Zones: make(map[string]syb.ZoneSnapshot)}, nil
		}
		return Snapshot{}, fmt.Errorf("load state: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal state: %w", err)
	}
	if s.Zones == nil {
		s.Zones = make(map[string]syb.ZoneSnapshot)
	}
	return s, nil
}

// saveUnlocked writes the state file WITHOUT acquiring the package mutex.
func saveUnlocked(s Snapshot) error {
	p := stateFilePath()
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir state dir: %w", err)
	}
	if err := os.WriteFile(p, b, 0o640); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// LoadSnapshot returns the persisted zone set, or an empty snapshot when no
// state file exists yet.
func LoadSnapshot() (Snapshot, error) {
	mu.Lock()
	defer mu.Unlock()
	return loadUnlocked()
}

// SaveSnapshot persists the given zone set, stamping it with now.
func SaveSnapshot(zones map[string]syb.ZoneSnapshot, now time.Time) error {
	mu.Lock()
	defer mu.Unlock()
	return saveUnlocked(Snapshot{TakenAt: now.UTC(), Zones: zones})
}

// Clear removes the state file. Used by tests and by operators who want a
// clean baseline on next start.
func Clear() error {
	mu.Lock()
	defer mu.Unlock()
	err := os.Remove(stateFilePath())
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

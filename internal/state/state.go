// Package state persists how far a release run got, so an operator can
// continue from a packaged build instead of rebuilding it.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// schemaVersion is written to every state file.
const schemaVersion = "1"

// Stage names a resumable point of a release run.
type Stage string

// Stages in the order a run reaches them.
const (
	// StagePackaged means installers were built for Release.Version but nothing was published.
	StagePackaged Stage = "packaged"
	// StageCommitted means the version bump is committed locally.
	StageCommitted Stage = "committed"
	// StageTagged means the release tag exists locally; uploads and pushes may be pending.
	StageTagged Stage = "tagged"
)

var stageOrder = map[Stage]int{
	StagePackaged:  1,
	StageCommitted: 2,
	StageTagged:    3,
}

// Reached reports whether s is other or a later stage.
func (s Stage) Reached(other Stage) bool {
	return stageOrder[s] > 0 && stageOrder[s] >= stageOrder[other]
}

// Release is the persisted record of an in-flight release
type Release struct {
	Stage           Stage     `json:"stage"`
	ReleaseType     string    `json:"release_type"`
	SourceBranch    string    `json:"source_branch"`
	TargetBranch    string    `json:"target_branch"`
	Channel         string    `json:"channel"`
	PreviousVersion string    `json:"previous_version"`
	Version         string    `json:"version"`
	Installer       string    `json:"installer,omitempty"`
	PackagedAt      time.Time `json:"packaged_at"`
}

// State represents the persistent state of release runs
type State struct {
	Version     string       `json:"version"`
	LastUpdated time.Time    `json:"last_updated"`
	Release     *Release     `json:"release,omitempty"`
	mu          sync.RWMutex `json:"-"`
	filePath    string       `json:"-"`
	modified    bool         `json:"-"`
}

// Load loads the state from a JSON file at the specified path.
// Returns an empty state if the file doesn't exist.
// Returns error if the file cannot be read or parsed.
func Load(filePath string) (*State, error) {
	s := &State{
		Version:  schemaVersion,
		filePath: filePath,
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return s, nil
	}

	data, err := os.ReadFile(filePath) // #nosec G304 -- filePath is controlled by application, not user input
	if err != nil {
		return nil, fmt.Errorf("failed to read state file from %s: %w", filePath, err)
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", filePath, err)
	}

	s.filePath = filePath
	return s, nil
}

// Path returns the backing file.
func (s *State) Path() string {
	return s.filePath
}

// Save saves the state to the JSON file atomically.
// Only saves if the state has been modified since the last save.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveUnlocked()
}

// saveUnlocked performs the save operation without acquiring the lock
// Caller must hold the lock
func (s *State) saveUnlocked() error {
	if !s.modified {
		return nil
	}

	s.LastUpdated = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state for %s: %w", s.filePath, err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}

	// Atomic write: write to temp file, then rename
	tmpFile, err := os.CreateTemp(dir, "state-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in directory %s for state %s: %w", dir, s.filePath, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()    // Best effort cleanup
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to write temp file %s for state %s: %w", tmpPath, s.filePath, err)
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()    // Best effort cleanup
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to sync temp file %s for state %s: %w", tmpPath, s.filePath, err)
	}

	_ = tmpFile.Close() // Explicit ignore - we've already synced

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to rename temp file %s to %s: %w", tmpPath, s.filePath, err)
	}

	s.modified = false
	return nil
}

// MarkPackaged records a packaged release and persists it immediately.
func (s *State) MarkPackaged(r Release) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.Stage = StagePackaged
	if r.PackagedAt.IsZero() {
		r.PackagedAt = time.Now()
	}
	s.Release = &r
	s.modified = true

	return s.saveUnlocked()
}

// Advance moves the pending release to stage and persists it immediately.
func (s *State) Advance(stage Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Release == nil {
		return fmt.Errorf("no packaged release to advance to stage %s", stage)
	}
	if _, ok := stageOrder[stage]; !ok {
		return fmt.Errorf("unknown release stage %q", stage)
	}
	s.Release.Stage = stage
	s.modified = true

	return s.saveUnlocked()
}

// Packaged returns a copy of the packaged release, if there is one. A release
// that was already committed or tagged counts as packaged until the run finishes.
func (s *State) Packaged() (Release, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Release == nil || !s.Release.Stage.Reached(StagePackaged) {
		return Release{}, false
	}
	return *s.Release, true
}

// Delete removes the state file from disk and clears in-memory state.
// Returns error if the file cannot be deleted (except if it doesn't exist).
func (s *State) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file %s: %w", s.filePath, err)
	}

	s.Release = nil
	s.modified = false
	return nil
}

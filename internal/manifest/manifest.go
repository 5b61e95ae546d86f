// Package manifest reads and rewrites the version field of the application's
// JSON manifest (package.json) without disturbing any other content.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// versionKey is the manifest field holding the semantic version.
const versionKey = "version"

// ErrNoVersion is returned when the manifest has no string "version" field.
var ErrNoVersion = errors.New("manifest has no version field")

// Manifest is an in-memory copy of a manifest file.
type Manifest struct {
	path     string
	data     []byte
	mode     os.FileMode
	modified bool
}

// Load reads the manifest at path and verifies it carries a version.
func Load(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat manifest %s: %w", path, err)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from release configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("manifest %s is not valid JSON", path)
	}

	m := &Manifest{path: path, data: data, mode: info.Mode().Perm()}
	if _, err := m.Version(); err != nil {
		return nil, err
	}
	return m, nil
}

// Path returns the file the manifest was loaded from.
func (m *Manifest) Path() string {
	return m.path
}

// Version returns the current version string.
func (m *Manifest) Version() (string, error) {
	res := gjson.GetBytes(m.data, versionKey)
	if !res.Exists() || res.Type != gjson.String || res.String() == "" {
		return "", fmt.Errorf("%w: %s", ErrNoVersion, m.path)
	}
	return res.String(), nil
}

// SetVersion replaces the version in memory. Call Save to persist it.
func (m *Manifest) SetVersion(version string) error {
	data, err := sjson.SetBytes(m.data, versionKey, version)
	if err != nil {
		return fmt.Errorf("failed to set version in manifest %s: %w", m.path, err)
	}
	m.data = data
	m.modified = true
	return nil
}

// Save writes the manifest back atomically if it was modified.
func (m *Manifest) Save() error {
	if !m.modified {
		return nil
	}

	dir := filepath.Dir(m.path)
	tmpFile, err := os.CreateTemp(dir, ".manifest-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in directory %s for manifest %s: %w", dir, m.path, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(m.data); err != nil {
		_ = tmpFile.Close()    // Best effort cleanup
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to write temp file %s for manifest %s: %w", tmpPath, m.path, err)
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()    // Best effort cleanup
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to sync temp file %s for manifest %s: %w", tmpPath, m.path, err)
	}
	_ = tmpFile.Close()

	if err := os.Chmod(tmpPath, m.mode); err != nil {
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to set permissions on %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, m.path); err != nil {
		_ = os.Remove(tmpPath) // Best effort cleanup
		return fmt.Errorf("failed to rename temp file %s to %s: %w", tmpPath, m.path, err)
	}

	m.modified = false
	return nil
}

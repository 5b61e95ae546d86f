// Package channel maps release types to update channels and locates the
// installer the packager produced for a channel.
package channel

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/zorak1103/releasectl/internal/config"
	apperrors "github.com/zorak1103/releasectl/internal/errors"
)

// Kinds reported in MissingArtifactError.
const (
	KindDescriptor = "channel descriptor"
	KindInstaller  = "installer"
)

// Name returns the update channel for a release type.
// Preview releases publish to the preview channel, everything else to the normal channel.
func Name(preview bool, channels config.ChannelsConfig) string {
	if preview {
		return channels.Preview
	}
	return channels.Normal
}

// DescriptorPath returns <outputDir>/<channel>.yml.
func DescriptorPath(outputDir, channel string) string {
	return filepath.Join(outputDir, channel+".yml")
}

// File is one entry of the descriptor's files list.
type File struct {
	URL    string `yaml:"url"`
	Sha512 string `yaml:"sha512"`
	Size   int64  `yaml:"size"`
}

// Descriptor is the update-feed file written by the packager for a channel.
type Descriptor struct {
	Version     string `yaml:"version"`
	Files       []File `yaml:"files"`
	Path        string `yaml:"path"`
	Sha512      string `yaml:"sha512"`
	ReleaseDate string `yaml:"releaseDate"`

	// source is the file the descriptor was read from.
	source string
}

// Artifacts are the files to publish for a channel.
type Artifacts struct {
	Installer  string
	Descriptor string
	Blockmap   string // empty when the packager did not emit one
}

// All returns the artifact paths in upload order.
func (a Artifacts) All() []string {
	paths := []string{a.Installer}
	if a.Blockmap != "" {
		paths = append(paths, a.Blockmap)
	}
	return append(paths, a.Descriptor)
}

// LoadDescriptor reads and parses the descriptor of channel in outputDir.
func LoadDescriptor(outputDir, channel string) (*Descriptor, error) {
	path := DescriptorPath(outputDir, channel)

	data, err := os.ReadFile(path) // #nosec G304 -- path is built from configured output dir and channel name
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &apperrors.MissingArtifactError{Kind: KindDescriptor, Path: path}
		}
		return nil, fmt.Errorf("failed to read channel descriptor %s: %w", path, err)
	}

	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse channel descriptor %s: %w", path, err)
	}
	if strings.TrimSpace(d.Path) == "" {
		return nil, fmt.Errorf("channel descriptor %s has no path field", path)
	}

	d.source = path
	return &d, nil
}

// Locate resolves the descriptor's installer (and blockmap, if present)
// relative to outputDir and verifies the installer exists.
func (d *Descriptor) Locate(outputDir string) (Artifacts, error) {
	installer := filepath.Join(outputDir, filepath.FromSlash(d.Path))
	if _, err := os.Stat(installer); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Artifacts{}, &apperrors.MissingArtifactError{Kind: KindInstaller, Path: installer}
		}
		return Artifacts{}, fmt.Errorf("failed to stat installer %s: %w", installer, err)
	}

	artifacts := Artifacts{Installer: installer, Descriptor: d.source}

	blockmap := installer + ".blockmap"
	if _, err := os.Stat(blockmap); err == nil {
		artifacts.Blockmap = blockmap
	}
	return artifacts, nil
}

// Find loads the descriptor for channel and locates its artifacts.
func Find(outputDir, channel string) (*Descriptor, Artifacts, error) {
	d, err := LoadDescriptor(outputDir, channel)
	if err != nil {
		return nil, Artifacts{}, err
	}
	artifacts, err := d.Locate(outputDir)
	if err != nil {
		return nil, Artifacts{}, err
	}
	return d, artifacts, nil
}

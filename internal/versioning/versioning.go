// Package versioning computes the next-version candidates offered to the
// operator from the current manifest version.
//
// Increment semantics follow the conventions of the JavaScript packaging
// ecosystem the released application is built with, so the versions offered
// here match what the packager and update feeds expect.
package versioning

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	apperrors "github.com/zorak1103/releasectl/internal/errors"
)

// DefaultPreid is the prerelease identifier used for preview releases.
const DefaultPreid = "preview"

// Kind names a version increment.
type Kind string

// Supported increments.
const (
	Major      Kind = "major"
	Minor      Kind = "minor"
	Patch      Kind = "patch"
	PreMajor   Kind = "premajor"
	PreMinor   Kind = "preminor"
	PrePatch   Kind = "prepatch"
	PreRelease Kind = "prerelease"
)

// NormalKinds are the increments offered for a normal release, in display order.
var NormalKinds = []Kind{Patch, Minor, Major}

// PreviewKinds are the increments offered for a preview release, in display order.
var PreviewKinds = []Kind{PreRelease, PrePatch, PreMinor, PreMajor}

// Candidate is a proposed next version together with the increment that produced it.
type Candidate struct {
	Kind    Kind
	Version string
}

// Parse strictly parses a semantic version string without a "v" prefix.
func Parse(raw string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimSpace(raw))
	if err != nil {
		return nil, &apperrors.InvalidVersionError{Version: raw, Err: err}
	}
	return v, nil
}

// Candidates returns the distinct next versions for current, in display order.
// Every returned version is strictly greater than current.
func Candidates(current string, preview bool, preid string) ([]string, error) {
	detailed, err := DetailedCandidates(current, preview, preid)
	if err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(detailed))
	for _, c := range detailed {
		versions = append(versions, c.Version)
	}
	return versions, nil
}

// DetailedCandidates is like Candidates but keeps the increment kind of the
// first occurrence of each version.
func DetailedCandidates(current string, preview bool, preid string) ([]Candidate, error) {
	base, err := Parse(current)
	if err != nil {
		return nil, err
	}

	kinds := NormalKinds
	if preview {
		kinds = PreviewKinds
		if preid == "" {
			preid = DefaultPreid
		}
	}

	seen := make(map[string]bool, len(kinds))
	candidates := make([]Candidate, 0, len(kinds))
	for _, kind := range kinds {
		next, err := increment(base, kind, preid)
		if err != nil {
			return nil, err
		}
		s := next.String()
		if seen[s] || !next.GreaterThan(base) {
			continue
		}
		seen[s] = true
		candidates = append(candidates, Candidate{Kind: kind, Version: s})
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("no version greater than %s can be derived", current)
	}
	return candidates, nil
}

// Increment applies a single increment to current.
func Increment(current string, kind Kind, preid string) (string, error) {
	base, err := Parse(current)
	if err != nil {
		return "", err
	}
	next, err := increment(base, kind, preid)
	if err != nil {
		return "", err
	}
	return next.String(), nil
}

// IsGreater reports whether candidate is strictly greater than current.
func IsGreater(candidate, current string) (bool, error) {
	c, err := Parse(candidate)
	if err != nil {
		return false, err
	}
	b, err := Parse(current)
	if err != nil {
		return false, err
	}
	return c.GreaterThan(b), nil
}

func increment(v *semver.Version, kind Kind, preid string) (*semver.Version, error) {
	major, minor, patch := v.Major(), v.Minor(), v.Patch()
	pre := v.Prerelease()

	switch kind {
	case Major:
		// 2.0.0-x promotes to 2.0.0 instead of skipping to 3.0.0.
		if minor != 0 || patch != 0 || pre == "" {
			major++
		}
		return semver.New(major, 0, 0, "", ""), nil
	case Minor:
		if patch != 0 || pre == "" {
			minor++
		}
		return semver.New(major, minor, 0, "", ""), nil
	case Patch:
		next := v.IncPatch()
		return &next, nil
	case PreMajor:
		return semver.New(major+1, 0, 0, startPrerelease(preid), ""), nil
	case PreMinor:
		return semver.New(major, minor+1, 0, startPrerelease(preid), ""), nil
	case PrePatch:
		return semver.New(major, minor, patch+1, startPrerelease(preid), ""), nil
	case PreRelease:
		if pre == "" {
			return semver.New(major, minor, patch+1, startPrerelease(preid), ""), nil
		}
		return semver.New(major, minor, patch, bumpPrerelease(pre, preid), ""), nil
	default:
		return nil, fmt.Errorf("unknown increment %q", kind)
	}
}

func startPrerelease(preid string) string {
	if preid == "" {
		return "0"
	}
	return preid + ".0"
}

// bumpPrerelease increments the right-most numeric identifier, appending ".0"
// when there is none. A differing preid restarts the series at preid.0.
func bumpPrerelease(pre, preid string) string {
	parts := strings.Split(pre, ".")

	bumped := false
	for i := len(parts) - 1; i >= 0; i-- {
		if !isNumeric(parts[i]) {
			continue
		}
		n, err := strconv.ParseUint(parts[i], 10, 64)
		if err != nil {
			continue
		}
		parts[i] = strconv.FormatUint(n+1, 10)
		bumped = true
		break
	}
	if !bumped {
		parts = append(parts, "0")
	}

	if preid != "" {
		if parts[0] != preid || len(parts) < 2 || !isNumeric(parts[1]) {
			return startPrerelease(preid)
		}
	}
	return strings.Join(parts, ".")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

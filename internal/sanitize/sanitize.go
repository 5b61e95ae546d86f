// Package sanitize provides functions for sanitizing names for safe filesystem use.
package sanitize

import "strings"

// Name converts channel and branch names to filesystem-safe names.
// Any rune outside [a-zA-Z0-9._-] becomes "_", so "release/1.x" maps to "release_1.x".
// Names made only of dots are replaced as well to avoid "." and ".." path segments.
func Name(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, name)

	if safe != "" && strings.Trim(safe, ".") == "" {
		return strings.Repeat("_", len(safe))
	}
	return safe
}

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFullVersion(t *testing.T) {
	originalVersion, originalBuildDate, originalGitCommit := Version, BuildDate, GitCommit
	defer func() {
		Version, BuildDate, GitCommit = originalVersion, originalBuildDate, originalGitCommit
	}()

	tests := []struct {
		name      string
		version   string
		buildDate string
		gitCommit string
		want      string
	}{
		{
			name:      "defaults",
			version:   "dev",
			buildDate: "unknown",
			gitCommit: "unknown",
			want:      "dev (build: unknown, commit: unknown)",
		},
		{
			name:      "tagged build",
			version:   "0.4.0",
			buildDate: "2026-03-01T10:00:00Z",
			gitCommit: "abc123def",
			want:      "0.4.0 (build: 2026-03-01T10:00:00Z, commit: abc123def)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, BuildDate, GitCommit = tt.version, tt.buildDate, tt.gitCommit

			assert.Equal(t, tt.version, GetVersion())
			assert.Equal(t, tt.want, GetFullVersion())
		})
	}
}

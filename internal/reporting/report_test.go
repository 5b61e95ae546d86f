package reporting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zorak1103/releasectl/internal/config"
	"github.com/zorak1103/releasectl/internal/sanitize"
)

func sampleSummary() *Summary {
	s := &Summary{
		ReleaseType:     "normal",
		SourceBranch:    "staging",
		TargetBranch:    "master",
		Channel:         "latest",
		PreviousVersion: "1.2.3",
		Version:         "1.2.4",
		Tag:             "v1.2.4",
		Artifacts: []string{
			"dist/Desktop-App-Setup-1.2.4.exe",
			"dist/Desktop-App-Setup-1.2.4.exe.blockmap",
			"dist/latest.yml",
		},
		Started:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Duration: 4*time.Minute + 12*time.Second,
	}
	s.AddStep("Sync branches", StatusDone, "")
	s.AddStep("Merge back", StatusDone, "staging, preview")
	return s
}

func TestGenerateReleaseReport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		mutate       func(*Summary)
		wantContains []string
		wantMissing  []string
	}{
		{
			name: "normal release",
			wantContains: []string{
				"# Release Report: v1.2.4",
				"**Type:** normal",
				"**Channel:** `latest`",
				"**Version:** 1.2.3 → 1.2.4",
				"**Branches:** `staging` → `master`",
				"**Duration:** 4m12s",
				"## 🚀 Steps",
				"| Sync branches | ✅ done |  |",
				"| Merge back | ✅ done | staging, preview |",
				"## 📦 Artifacts",
				"- `dist/latest.yml`",
			},
			wantMissing: []string{"Dry run", "Resumed"},
		},
		{
			name: "dry run",
			mutate: func(s *Summary) {
				s.DryRun = true
				s.Steps = nil
				s.AddStep("Upload artifacts", StatusDryRun, "")
			},
			wantContains: []string{
				"> Dry run: commands were printed, nothing was executed.",
				"| Upload artifacts | 🧪 dry-run |  |",
			},
		},
		{
			name: "resumed preview release",
			mutate: func(s *Summary) {
				s.ReleaseType = "preview"
				s.Channel = "preview"
				s.Resumed = true
				s.Steps = nil
				s.AddStep("Merge back", StatusSkipped, "preview releases are not merged back")
			},
			wantContains: []string{
				"> Resumed from a previously packaged build.",
				"| Merge back | ⏭️ skipped | preview releases are not merged back |",
			},
		},
		{
			name: "pipe in detail is escaped",
			mutate: func(s *Summary) {
				s.Steps = nil
				s.AddStep("Build and test", StatusDone, "a|b\nc")
			},
			wantContains: []string{`| Build and test | ✅ done | a\|b c |`},
		},
		{
			name: "no artifacts section without artifacts",
			mutate: func(s *Summary) {
				s.Artifacts = nil
			},
			wantMissing: []string{"## 📦 Artifacts"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := sampleSummary()
			if tt.mutate != nil {
				tt.mutate(s)
			}
			result := GenerateReleaseReport(s)

			for _, want := range tt.wantContains {
				if !strings.Contains(result, want) {
					t.Errorf("GenerateReleaseReport() missing expected content: %q\nGot:\n%s", want, result)
				}
			}
			for _, missing := range tt.wantMissing {
				if strings.Contains(result, missing) {
					t.Errorf("GenerateReleaseReport() unexpectedly contains %q\nGot:\n%s", missing, result)
				}
			}
		})
	}
}

func TestSummary_Headline(t *testing.T) {
	t.Parallel()

	s := sampleSummary()
	if got, want := s.Headline(), "Released normal v1.2.4 on channel latest (from 1.2.3)"; got != want {
		t.Errorf("Headline() = %q, want %q", got, want)
	}

	s.DryRun = true
	if !strings.HasPrefix(s.Headline(), "[dry-run] ") {
		t.Errorf("Headline() = %q, want dry-run prefix", s.Headline())
	}
}

func TestSaveReport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		channelName string
		content     string
	}{
		{
			name:        "save basic report",
			channelName: "latest",
			content:     "# Release Report\n\nReleased.",
		},
		{
			name:        "save report with slash in channel",
			channelName: "beta/internal",
			content:     "# Report\n\nContent here.",
		},
		{
			name:        "save empty report",
			channelName: "preview",
			content:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tmpDir := t.TempDir()
			cfg := &config.Config{
				Output: config.OutputConfig{
					ReportsDir: tmpDir,
				},
			}

			filePath, err := SaveReport(tt.channelName, tt.content, cfg)
			if err != nil {
				t.Fatalf("SaveReport() error = %v", err)
			}

			content, err := os.ReadFile(filePath) //nolint:gosec // Test code reading file created by the test
			if err != nil {
				t.Fatalf("SaveReport() failed to read created file: %v", err)
			}
			if string(content) != tt.content {
				t.Errorf("SaveReport() content mismatch\nGot: %s\nWant: %s", string(content), tt.content)
			}

			expectedDir := filepath.Join(tmpDir, sanitize.Name(tt.channelName))
			if filepath.Dir(filePath) != expectedDir {
				t.Errorf("SaveReport() unexpected directory\nGot: %s\nWant: %s", filepath.Dir(filePath), expectedDir)
			}

			if !strings.HasSuffix(filepath.Base(filePath), ".md") {
				t.Errorf("SaveReport() filename should end with .md, got: %s", filepath.Base(filePath))
			}
		})
	}
}

func TestSaveReport_DirectoryCreation(t *testing.T) {
	t.Parallel()

	nestedDir := filepath.Join(t.TempDir(), "nested", "reports")
	cfg := &config.Config{
		Output: config.OutputConfig{
			ReportsDir: nestedDir,
		},
	}

	filePath, err := SaveReport("latest", "test content", cfg)
	if err != nil {
		t.Fatalf("SaveReport() failed to create nested directories: %v", err)
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		t.Errorf("SaveReport() file not created in nested directory: %s", filePath)
	}
}

func TestSaveReport_FilePermissions(t *testing.T) {
	t.Parallel()

	// Skip on Windows as it doesn't support Unix-style file permissions
	if os.PathSeparator == '\\' {
		t.Skip("Skipping file permissions test on Windows")
	}

	cfg := &config.Config{
		Output: config.OutputConfig{
			ReportsDir: t.TempDir(),
		},
	}

	filePath, err := SaveReport("latest", "test content", cfg)
	if err != nil {
		t.Fatalf("SaveReport() failed: %v", err)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}

	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		t.Errorf("SaveReport() file has insecure permissions: %o, expected 0600", mode)
	}
}

// Package reporting generates reports from release runs.
package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zorak1103/releasectl/internal/config"
	"github.com/zorak1103/releasectl/internal/sanitize"
)

// Step statuses recorded in a Summary.
const (
	StatusDone    = "done"
	StatusSkipped = "skipped"
	StatusDryRun  = "dry-run"
)

// StepResult records how a release step ended.
type StepResult struct {
	Name   string
	Status string
	Detail string
}

// Summary describes a finished release run.
type Summary struct {
	ReleaseType     string
	SourceBranch    string
	TargetBranch    string
	Channel         string
	PreviousVersion string
	Version         string
	Tag             string
	Artifacts       []string
	Steps           []StepResult
	Resumed         bool
	DryRun          bool
	Started         time.Time
	Duration        time.Duration
}

// AddStep appends a step outcome.
func (s *Summary) AddStep(name, status, detail string) {
	s.Steps = append(s.Steps, StepResult{Name: name, Status: status, Detail: detail})
}

// Headline is the one-line description used in notifications.
func (s *Summary) Headline() string {
	prefix := ""
	if s.DryRun {
		prefix = "[dry-run] "
	}
	return fmt.Sprintf("%sReleased %s %s on channel %s (from %s)",
		prefix, s.ReleaseType, s.Tag, s.Channel, s.PreviousVersion)
}

// GenerateReleaseReport formats a release summary as a markdown report.
func GenerateReleaseReport(s *Summary) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Release Report: %s\n\n", s.Tag))
	sb.WriteString(fmt.Sprintf("**Date:** %s  \n", s.Started.Format(time.RFC1123)))
	sb.WriteString(fmt.Sprintf("**Type:** %s  \n", s.ReleaseType))
	sb.WriteString(fmt.Sprintf("**Channel:** `%s`  \n", s.Channel))
	sb.WriteString(fmt.Sprintf("**Version:** %s → %s  \n", s.PreviousVersion, s.Version))
	sb.WriteString(fmt.Sprintf("**Branches:** `%s` → `%s`  \n", s.SourceBranch, s.TargetBranch))
	sb.WriteString(fmt.Sprintf("**Duration:** %s\n\n", s.Duration.Round(time.Second)))

	if s.DryRun {
		sb.WriteString("> Dry run: commands were printed, nothing was executed.\n\n")
	}
	if s.Resumed {
		sb.WriteString("> Resumed from a previously packaged build.\n\n")
	}

	sb.WriteString("## 🚀 Steps\n\n")
	sb.WriteString("| Step | Status | Detail |\n")
	sb.WriteString("|------|--------|--------|\n")
	for _, step := range s.Steps {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", step.Name, statusIcon(step.Status), escapeCell(step.Detail)))
	}
	sb.WriteString("\n")

	if len(s.Artifacts) > 0 {
		sb.WriteString("## 📦 Artifacts\n\n")
		for _, a := range s.Artifacts {
			sb.WriteString(fmt.Sprintf("- `%s`\n", a))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func statusIcon(status string) string {
	switch status {
	case StatusDone:
		return "✅ done"
	case StatusSkipped:
		return "⏭️ skipped"
	case StatusDryRun:
		return "🧪 dry-run"
	default:
		return status
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// SaveReport writes a report to the channel's directory and returns the file path.
func SaveReport(channelName, content string, cfg *config.Config) (string, error) {
	channelDir := filepath.Join(cfg.Output.ReportsDir, sanitize.Name(channelName))
	if err := os.MkdirAll(channelDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	// Generate filename: YYYY-MM-DD_HH-MM-SS.md
	filename := time.Now().Format("2006-01-02_15-04-05") + ".md"
	filePath := filepath.Join(channelDir, filename)

	if err := os.WriteFile(filePath, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return filePath, nil
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zorak1103/releasectl/internal/config"
	apperrors "github.com/zorak1103/releasectl/internal/errors"
)

// validateConfigOrExit returns a configuration error when no usable
// configuration was loaded for commandName.
func validateConfigOrExit(cfg *config.Config, commandName string) error {
	if cfg != nil {
		return nil
	}

	path := cfgFile
	if path == "" {
		path = "release.yaml"
	}

	cause := GetConfigLoadError()
	if cause == nil {
		cause = fmt.Errorf("configuration not loaded")
	}
	return &apperrors.ConfigurationError{
		ConfigPath: path,
		Err:        fmt.Errorf("%s needs a valid configuration: %w\n\nRun 'releasectl init' to create release.yaml", commandName, cause),
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display the effective configuration",
	Long: `Display the effective configuration that releasectl will use at runtime.

This shows the merged configuration from:
  1. Default values
  2. Configuration file (release.yaml)
  3. .env file and environment variables (highest priority)

Secrets are never printed: signing variables only show whether they are set
and the notification URL is masked.`,
	Example: `  # Show current configuration
  releasectl config

  # Show with custom config file
  releasectl config --config deploy/release.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := GetConfig()
		if err := validateConfigOrExit(cfg, "config"); err != nil {
			return err
		}

		printConfig(cmd.OutOrStdout(), cfg, os.LookupEnv)
		return nil
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(configCmd)
}

func printConfig(w io.Writer, cfg *config.Config, lookupEnv func(string) (string, bool)) {
	p := func(format string, args ...any) {
		_, _ = fmt.Fprintf(w, format, args...)
	}

	p("=== releasectl Effective Configuration ===\n\n")

	source := cfg.ConfigFilePath
	if source == "" {
		source = "(defaults and environment)"
	}
	p("📄 Config File:     %s\n\n", source)

	p("📦 Project:\n")
	p("   Manifest:        %s\n", cfg.Manifest)
	p("   Output Dir:      %s\n", cfg.OutputDir)
	p("   Remote:          %s\n", cfg.Remote)
	p("   Preview Preid:   %s\n\n", cfg.Preid)

	p("🌿 Branches:\n")
	p("   Preview:         %s → %s\n", cfg.Branches.PreviewSource, cfg.Branches.PreviewTarget)
	p("   Normal:          {%s} → %s\n", strings.Join(cfg.Branches.NormalSources, ", "), cfg.Branches.NormalTarget)
	p("   Merge Back:      %s\n\n", displayList(cfg.Branches.MergeBack))

	p("📡 Channels:\n")
	p("   Normal:          %s\n", cfg.Channels.Normal)
	p("   Preview:         %s\n\n", cfg.Channels.Preview)

	p("🔏 Signing:\n")
	for _, name := range cfg.Signing.RequiredEnv {
		p("   %-16s %s\n", name+":", envStatus(lookupEnv, name))
	}
	p("\n")

	p("🛠️  Commands:\n")
	p("   Install:         %s\n", displayCommand(cfg.Commands.Install))
	p("   Plugins:         %s\n", displayCommand(cfg.Commands.Plugins))
	p("   Build:           %s\n", displayCommand(cfg.Commands.Build))
	p("   Test:            %s\n", displayCommand(cfg.Commands.Test))
	p("   Package:         %s\n\n", displayCommand(cfg.Commands.Package))

	p("🐞 Error Tracking:\n")
	p("   Enabled:         %v\n", cfg.ErrorTracking.Enabled)
	if cfg.ErrorTracking.Enabled {
		p("   Command:         %s\n", cfg.ErrorTracking.Command)
		p("   Org/Project:     %s/%s\n", cfg.ErrorTracking.Org, cfg.ErrorTracking.Project)
		p("   Source Maps:     %s (%s)\n", cfg.ErrorTracking.SourcemapsDir, cfg.ErrorTracking.URLPrefix)
	}
	p("\n")

	p("☁️  Storage:\n")
	p("   Bucket:          %s\n", displayValue(cfg.Storage.Bucket))
	p("   Upload Command:  %s\n\n", cfg.Storage.UploadCommand)

	p("🔔 Notification Configuration:\n")
	p("   Enabled:         %v\n", cfg.Notification.Enabled)
	p("   Shoutrrr URL:    %s\n\n", maskShoutrrrURL(cfg.Notification.ShoutrrURL))

	p("📁 Output Configuration:\n")
	p("   Reports Dir:     %s\n", cfg.Output.ReportsDir)
	p("   State File:      %s\n", cfg.Output.StateFile)
	p("   Command Log:     %v (%s)\n", cfg.Output.CommandLogEnabled, cfg.Output.CommandLogDir)
}

func envStatus(lookupEnv func(string) (string, bool), name string) string {
	if v, ok := lookupEnv(name); ok && v != "" {
		return "✅ set"
	}
	return "❌ Not set"
}

func displayCommand(line string) string {
	if strings.TrimSpace(line) == "" {
		return "(skipped)"
	}
	return line
}

func displayValue(v string) string {
	if v == "" {
		return "❌ Not set"
	}
	return v
}

func displayList(list []string) string {
	if len(list) == 0 {
		return "(none)"
	}
	return strings.Join(list, ", ")
}

// maskShoutrrrURL masks sensitive parts of Shoutrrr URL
func maskShoutrrrURL(url string) string {
	if url == "" {
		return "❌ Not configured"
	}

	// Extract service type (e.g., discord://, slack://, smtp://)
	parts := strings.SplitN(url, "://", 2)
	if len(parts) != 2 {
		return "✅ Configured (invalid format)"
	}

	return fmt.Sprintf("✅ Configured (%s://***)", parts[0])
}

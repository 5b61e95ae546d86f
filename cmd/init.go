package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/zorak1103/releasectl/internal/templates"
)

var (
	force bool
)

// workDir is where releasectl keeps reports, logs and the state file.
const workDir = ".releasectl"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize releasectl configuration and directory structure",
	Long: `Init creates the configuration files and directories releasectl needs.

This command will create:
  - release.yaml (sample configuration file)
  - .env (signing and storage credential template)
  - .releasectl/reports/ (directory for release reports)
  - .releasectl/logs/ (directory for command transcripts)

Run this once in the application repository. Keep .env out of version control.`,
	Example: `  # Initialize in current directory
  releasectl init

  # Force overwrite existing files
  releasectl init --force`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, "🔧 Initializing releasectl...")

		dirs := []string{
			filepath.Join(workDir, "reports"),
			filepath.Join(workDir, "logs"),
		}

		for _, dir := range dirs {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
			_, _ = fmt.Fprintf(out, "✅ Created directory: %s\n", dir)
		}

		files := []struct {
			name    string
			content []byte
		}{
			{"release.yaml", templates.ConfigYAML},
			{".env", templates.EnvFile},
		}

		for _, f := range files {
			if _, err := os.Stat(f.name); err == nil && !force {
				_, _ = fmt.Fprintf(out, "⚠️  Skipping %s (already exists, use --force to overwrite)\n", f.name)
				continue
			}

			if err := os.WriteFile(f.name, f.content, 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", f.name, err)
			}

			_, _ = fmt.Fprintf(out, "✅ Created %s\n", f.name)
		}

		_, _ = fmt.Fprintln(out, "\n🎉 Initialization complete!")
		_, _ = fmt.Fprintln(out, "\n📝 Next steps:")
		_, _ = fmt.Fprintln(out, "   1. Edit release.yaml to match your branches and build commands")
		_, _ = fmt.Fprintln(out, "   2. Edit .env to add signing credentials and the storage bucket")
		_, _ = fmt.Fprintln(out, "   3. Run 'releasectl config' to check the effective configuration")
		_, _ = fmt.Fprintln(out, "   4. Run 'releasectl run --dry-run' to rehearse a release")

		return nil
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration files")
}

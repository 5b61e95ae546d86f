package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/zorak1103/releasectl/internal/state"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Manage the saved release state",
	Long: `State management commands for inspecting and discarding a packaged release.

After packaging, releasectl saves which version was built for which channel.
'releasectl run --continue' uses it to publish that build without rebuilding.`,
}

var stateListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the packaged release waiting to be published",
	Example: `  # Show the pending release
  releasectl state list`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg = GetConfig()
		if err := validateConfigOrExit(cfg, "state"); err != nil {
			return err
		}

		st, err := state.Load(cfg.Output.StateFile)
		if err != nil {
			return fmt.Errorf("failed to load state: %w", err)
		}

		// Write output to stdout; errors writing to stdout are not actionable in CLI context
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "📊 Release State:")
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "")

		pending, ok := st.Packaged()
		if !ok {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ℹ️  No packaged release pending")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "   State file: %s\n", cfg.Output.StateFile)
			return nil
		}

		installer := pending.Installer
		if installer == "" {
			installer = "-"
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintf(w, "Stage\t%s\n", pending.Stage)
		_, _ = fmt.Fprintf(w, "Type\t%s\n", pending.ReleaseType)
		_, _ = fmt.Fprintf(w, "Version\t%s → %s\n", pending.PreviousVersion, pending.Version)
		_, _ = fmt.Fprintf(w, "Channel\t%s\n", pending.Channel)
		_, _ = fmt.Fprintf(w, "Branches\t%s → %s\n", pending.SourceBranch, pending.TargetBranch)
		_, _ = fmt.Fprintf(w, "Installer\t%s\n", installer)
		_, _ = fmt.Fprintf(w, "Packaged\t%s\n", pending.PackagedAt.Format("2006-01-02 15:04:05"))
		_ = w.Flush() // Flush buffered output; error not actionable in CLI display context

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "")
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run 'releasectl run --continue' to verify and publish it.")
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "State file: %s\n", cfg.Output.StateFile)
		if !st.LastUpdated.IsZero() {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Last updated: %s\n", st.LastUpdated.Format(time.RFC3339))
		}

		return nil
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the packaged release",
	Long: `Delete the state file so the next run starts from release type selection.

The packaged installers and the bumped manifest are left untouched; revert
the manifest yourself if the version will not be released.`,
	Example: `  # Discard the pending release
  releasectl state reset --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg = GetConfig()
		if err := validateConfigOrExit(cfg, "state"); err != nil {
			return err
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "⚠️  Discarding the saved release state")

		if !force {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "")
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "❌ Aborted (use --force to confirm)")
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "")
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "A pending release can then no longer be continued.")
			return nil
		}

		st, err := state.Load(cfg.Output.StateFile)
		if err != nil {
			return fmt.Errorf("failed to load state: %w", err)
		}

		pending, hadPending := st.Packaged()
		if err := st.Delete(); err != nil {
			return fmt.Errorf("failed to delete state file: %w", err)
		}

		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "")
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✅ State reset complete")
		if hadPending {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "   Discarded packaged release v%s (%s)\n", pending.Version, pending.Channel)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "   Deleted: %s\n", cfg.Output.StateFile)

		return nil
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateListCmd)
	stateCmd.AddCommand(stateResetCmd)

	// Reset-specific flags
	stateResetCmd.Flags().BoolVar(&force, "force", false, "confirm state reset")
}

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/zorak1103/releasectl/internal/config"
	apperrors "github.com/zorak1103/releasectl/internal/errors"
	"github.com/zorak1103/releasectl/internal/notification"
	"github.com/zorak1103/releasectl/internal/prompt"
	"github.com/zorak1103/releasectl/internal/release"
	"github.com/zorak1103/releasectl/internal/reporting"
	"github.com/zorak1103/releasectl/internal/runlog"
	"github.com/zorak1103/releasectl/internal/runner"
	"github.com/zorak1103/releasectl/internal/state"
)

var (
	continueRelease bool
	dryRun          bool
)

// newPrompter builds the interactive prompter; tests replace it.
var newPrompter = func() prompt.Prompter {
	return prompt.NewHuhPrompter()
}

// runOptions holds the run command's flags.
type runOptions struct {
	mode   release.ResumeMode
	dryRun bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interactive release",
	Long: `Run walks through one release of the application.

The flow asks for the release type (normal or preview), synchronizes the
branches, builds and tests, offers the next versions and packages the signed
installers. After you have verified the installer it tags, uploads the
artifacts and pushes. Normal releases are finally merged back into the
development branches.

If you stop after packaging, 'releasectl run --continue' resumes at the
verification step with the build that is already on disk.`,
	Example: `  # Start a release
  releasectl run

  # Publish the release packaged by an earlier run
  releasectl run --continue

  # Print every command instead of running it
  releasectl run --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg = GetConfig()
		if err := validateConfigOrExit(cfg, "run"); err != nil {
			return err
		}

		opts := runOptions{mode: release.Fresh, dryRun: dryRun}
		if continueRelease {
			opts.mode = release.ContinueFromPackaged
		}

		_, err := runRelease(cmd.Context(), cmd.OutOrStdout(), cfg, newPrompter(), opts)
		return err
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&continueRelease, "continue", false, "resume a packaged release at manual verification")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print commands instead of running them and write nothing")
}

// runRelease wires the release controller to its collaborators and runs it.
func runRelease(ctx context.Context, out io.Writer, cfg *config.Config, p prompt.Prompter, opts runOptions) (*reporting.Summary, error) {
	st, err := state.Load(cfg.Output.StateFile)
	if err != nil {
		return nil, &apperrors.ConfigurationError{ConfigPath: cfg.Output.StateFile, Key: "output.state_file", Err: err}
	}

	notifier, err := notification.NewNotifier(cfg)
	if err != nil {
		return nil, &apperrors.ConfigurationError{ConfigPath: configPath(cfg), Key: "notification.shoutrrr_url", Err: err}
	}

	var r runner.CommandRunner
	if opts.dryRun {
		r = &runner.DryRunRunner{Out: out}
	} else {
		logger := runlog.NewLogger(cfg.Output.CommandLogDir, cfg.Output.CommandLogEnabled)
		r = runner.NewExecRunner(out, logger)
		if IsVerbose() && logger.IsEnabled() {
			_, _ = fmt.Fprintf(out, "Command transcript: %s\n", logger.Path())
		}
	}

	controller, err := release.New(release.Options{
		Config:   cfg,
		Runner:   r,
		Prompter: p,
		State:    st,
		Notifier: notifier,
		Out:      out,
		DryRun:   opts.dryRun,
	})
	if err != nil {
		return nil, err
	}

	return controller.Run(ctx, opts.mode)
}

func configPath(cfg *config.Config) string {
	if cfg.ConfigFilePath != "" {
		return cfg.ConfigFilePath
	}
	return "release.yaml"
}

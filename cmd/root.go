// Package cmd implements the CLI commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zorak1103/releasectl/internal/config"
	"github.com/zorak1103/releasectl/internal/console"
	apperrors "github.com/zorak1103/releasectl/internal/errors"
	"github.com/zorak1103/releasectl/internal/version"
)

var (
	cfgFile       string
	verbose       bool
	cfg           *config.Config
	errConfigLoad error
)

var rootCmd = &cobra.Command{
	Use:   "releasectl",
	Short: "Interactive release orchestrator for desktop applications",
	Long: `releasectl walks an operator through releasing a desktop application.

A release run:
  - Synchronizes the source and target branches
  - Installs, builds and tests the application
  - Offers the next semantic versions and bumps the manifest
  - Packages signed installers for the normal or preview update channel
  - Waits for manual verification, then tags, uploads and pushes
  - Merges normal releases back into the development branches

Every step is delegated to the configured tools (git, yarn, sentry-cli, aws).
Confirmation gates before packaging and before deploying are always interactive.`,
	Version:       version.GetFullVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		skipConfig := cmd.Name() == "init" || cmd.Name() == "help" || cmd.Name() == "version"
		if skipConfig {
			return nil
		}

		cfg, errConfigLoad = config.Load(cfgFile)
		if errConfigLoad != nil {
			// Commands that need a config fail in validateConfigOrExit;
			// candidates works without one.
			if verbose {
				fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", errConfigLoad)
			}
		}

		if verbose && cfg != nil {
			source := cfg.ConfigFilePath
			if source == "" {
				source = "(defaults and environment)"
			}
			fmt.Fprintf(os.Stderr, "Loaded configuration from: %s\n", source)
		}

		return nil
	},
}

// Execute runs the root command and exits with the status the error maps to.
// SIGINT and SIGTERM cancel the running step.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	os.Exit(reportError(err))
}

// reportError prints err for the operator and returns the process exit status.
func reportError(err error) int {
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrAborted):
		fmt.Fprintln(os.Stderr, console.FormatWarningMessage("Release aborted, nothing was published"))
	default:
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
	}
	return apperrors.ExitCode(err)
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./release.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// GetConfig returns the loaded configuration or nil if not loaded.
// Must be called after rootCmd.PersistentPreRunE has executed.
func GetConfig() *config.Config {
	return cfg
}

// GetConfigLoadError returns any error encountered during config loading.
// Returns nil if configuration loaded successfully or was not attempted.
func GetConfigLoadError() error {
	return errConfigLoad
}

// IsVerbose returns whether verbose mode is enabled via the -v flag.
func IsVerbose() bool {
	return verbose
}

package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/zorak1103/releasectl/internal/config"
)

// loadTestConfig writes a release.yaml into a temp dir and loads it.
func loadTestConfig(t *testing.T, extra string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "release.yaml")
	content := "manifest: " + filepath.Join(dir, "package.json") + "\n" +
		"output_dir: " + filepath.Join(dir, "dist") + "\n" +
		"output:\n" +
		"  reports_dir: " + filepath.Join(dir, "reports") + "\n" +
		"  state_file: " + filepath.Join(dir, "state.json") + "\n" +
		"  command_log_dir: " + filepath.Join(dir, "logs") + "\n" +
		"storage:\n" +
		"  bucket: releases.example.com\n" +
		extra
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	c, err := config.Load(path)
	require.NoError(t, err)
	return c
}

// useConfig installs c as the loaded configuration for the duration of the test.
func useConfig(t *testing.T, c *config.Config) {
	t.Helper()

	originalCfg, originalErr := cfg, errConfigLoad
	cfg, errConfigLoad = c, nil
	t.Cleanup(func() { cfg, errConfigLoad = originalCfg, originalErr })
}

// execute runs cmd's RunE with its output captured.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	cmd.SetContext(context.Background())
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	t.Cleanup(func() {
		cmd.SetOut(nil)
		cmd.SetErr(nil)
	})

	err := cmd.RunE(cmd, args)
	return buf.String(), err
}

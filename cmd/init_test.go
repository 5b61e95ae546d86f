package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zorak1103/releasectl/internal/templates"
)

func TestInitCmd_Structure(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "init", initCmd.Use)
	assert.NotEmpty(t, initCmd.Short)
	assert.NotEmpty(t, initCmd.Long)
	assert.NotEmpty(t, initCmd.Example)

	forceFlag := initCmd.Flags().Lookup("force")
	require.NotNil(t, forceFlag)
	assert.Equal(t, "false", forceFlag.DefValue)
}

func setForce(t *testing.T, v bool) {
	t.Helper()
	original := force
	force = v
	t.Cleanup(func() { force = original })
}

func TestInitCmd_CreatesFilesAndDirectories(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	setForce(t, false)

	output, err := execute(t, initCmd)
	require.NoError(t, err)

	for _, d := range []string{".releasectl/reports", ".releasectl/logs"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, d)
		assert.True(t, info.IsDir())
	}

	data, err := os.ReadFile(filepath.Join(dir, "release.yaml"))
	require.NoError(t, err)
	assert.Equal(t, templates.ConfigYAML, data)

	data, err = os.ReadFile(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, templates.EnvFile, data)

	assert.Contains(t, output, "Created release.yaml")
	assert.Contains(t, output, "Next steps")
}

func TestInitCmd_KeepsExistingFilesWithoutForce(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	setForce(t, false)

	require.NoError(t, os.WriteFile("release.yaml", []byte("remote: upstream\n"), 0o600))

	output, err := execute(t, initCmd)
	require.NoError(t, err)

	data, err := os.ReadFile("release.yaml")
	require.NoError(t, err)
	assert.Equal(t, "remote: upstream\n", string(data))
	assert.Contains(t, output, "Skipping release.yaml")
	assert.FileExists(t, ".env")
}

func TestInitCmd_ForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	setForce(t, true)

	require.NoError(t, os.WriteFile("release.yaml", []byte("remote: upstream\n"), 0o600))

	_, err := execute(t, initCmd)
	require.NoError(t, err)

	data, err := os.ReadFile("release.yaml")
	require.NoError(t, err)
	assert.Equal(t, templates.ConfigYAML, data)
}

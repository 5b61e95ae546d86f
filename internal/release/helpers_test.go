package release

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zorak1103/releasectl/internal/config"
	"github.com/zorak1103/releasectl/internal/manifest"
	"github.com/zorak1103/releasectl/internal/prompt"
	"github.com/zorak1103/releasectl/internal/runner"
	"github.com/zorak1103/releasectl/internal/state"
)

const packageJSON = `{
  "name": "desktop-app",
  "productName": "Desktop App",
  "version": "1.2.3",
  "main": "dist/main.js",
  "scripts": {
    "dist": "electron-builder --publish never"
  }
}
`

// fakePrompter answers prompts from queues and records every question.
type fakePrompter struct {
	selects  []string
	confirms []bool

	selectTitles  []string
	selectOptions [][]prompt.Option
	confirmTitles []string
}

func (f *fakePrompter) Select(title, _ string, options []prompt.Option) (string, error) {
	f.selectTitles = append(f.selectTitles, title)
	f.selectOptions = append(f.selectOptions, options)
	if len(f.selects) == 0 {
		return "", fmt.Errorf("unexpected select prompt %q", title)
	}
	answer := f.selects[0]
	f.selects = f.selects[1:]
	return answer, nil
}

func (f *fakePrompter) Confirm(title, _ string) (bool, error) {
	f.confirmTitles = append(f.confirmTitles, title)
	if len(f.confirms) == 0 {
		return false, fmt.Errorf("unexpected confirm prompt %q", title)
	}
	answer := f.confirms[0]
	f.confirms = f.confirms[1:]
	return answer, nil
}

func (f *fakePrompter) asked() int {
	return len(f.selectTitles) + len(f.confirmTitles)
}

// fixture is a workspace with a manifest, an output directory and a
// controller wired to fakes.
type fixture struct {
	dir      string
	cfg      *config.Config
	runner   *runner.RecordingRunner
	prompter *fakePrompter
	state    *state.State
	env      map[string]string
	out      *bytes.Buffer

	// writeArtifacts controls whether the fake packager emits its outputs.
	writeArtifacts bool
	skipInstaller  bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(packageJSON), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist"), 0o750))

	cfg := &config.Config{
		Manifest:  filepath.Join(dir, "package.json"),
		OutputDir: filepath.Join(dir, "dist"),
		Remote:    "origin",
		Preid:     "preview",
		Branches: config.BranchesConfig{
			PreviewSource: "staging",
			PreviewTarget: "preview",
			NormalSources: []string{"preview", "staging", "master"},
			NormalTarget:  "master",
			MergeBack:     []string{"staging", "preview"},
		},
		Channels: config.ChannelsConfig{Normal: "latest", Preview: "preview"},
		Signing:  config.SigningConfig{RequiredEnv: []string{"CSC_LINK", "CSC_KEY_PASSWORD"}},
		Commands: config.CommandsConfig{
			Install: "yarn install --frozen-lockfile",
			Build:   "yarn run build",
			Test:    "yarn test",
			Package: "yarn run dist",
		},
		ErrorTracking: config.ErrorTrackingConfig{Command: "sentry-cli"},
		Storage: config.StorageConfig{
			Bucket:        "desktop-releases",
			UploadCommand: `aws s3 cp "${ARTIFACT_PATH}" "s3://${STORAGE_BUCKET}/${RELEASE_CHANNEL}/${ARTIFACT_NAME}"`,
		},
		Output: config.OutputConfig{
			ReportsDir: filepath.Join(dir, "reports"),
			StateFile:  filepath.Join(dir, "state", "state.json"),
		},
	}

	st, err := state.Load(cfg.Output.StateFile)
	require.NoError(t, err)

	f := &fixture{
		dir:            dir,
		cfg:            cfg,
		prompter:       &fakePrompter{},
		state:          st,
		env:            map[string]string{"CSC_LINK": "file:///certs/app.p12", "CSC_KEY_PASSWORD": "secret"},
		out:            &bytes.Buffer{},
		writeArtifacts: true,
	}
	f.runner = &runner.RecordingRunner{OnRun: func(cmd runner.Command) error {
		if f.writeArtifacts && cmd.String() == cfg.Commands.Package {
			f.emitArtifacts(t)
		}
		return nil
	}}
	return f
}

// emitArtifacts plays the packager: it writes the installer, its blockmap and
// the channel descriptor for the version currently in the manifest.
func (f *fixture) emitArtifacts(t *testing.T) {
	t.Helper()

	m, err := manifest.Load(f.cfg.Manifest)
	require.NoError(t, err)
	version, err := m.Version()
	require.NoError(t, err)

	channelName := f.cfg.Channels.Normal
	if strings.Contains(version, "-") {
		channelName = f.cfg.Channels.Preview
	}
	writeArtifacts(t, f.cfg.OutputDir, channelName, version, !f.skipInstaller)
}

func installerName(version string) string {
	return "Desktop-App-Setup-" + version + ".exe"
}

func writeArtifacts(t *testing.T, outputDir, channelName, version string, withInstaller bool) {
	t.Helper()

	descriptor := fmt.Sprintf(`version: %[1]s
files:
  - url: %[2]s
    sha512: abc123==
    size: 81234567
path: %[2]s
sha512: abc123==
releaseDate: '2026-10-17T09:12:44.000Z'
`, version, installerName(version))

	require.NoError(t, os.WriteFile(filepath.Join(outputDir, channelName+".yml"), []byte(descriptor), 0o600))
	if withInstaller {
		installer := filepath.Join(outputDir, installerName(version))
		require.NoError(t, os.WriteFile(installer, []byte("MZ"), 0o600))
		require.NoError(t, os.WriteFile(installer+".blockmap", []byte("map"), 0o600))
	}
}

func (f *fixture) controller(t *testing.T, dryRun bool) *Controller {
	t.Helper()

	c, err := New(Options{
		Config:   f.cfg,
		Runner:   f.runner,
		Prompter: f.prompter,
		State:    f.state,
		Out:      f.out,
		LookupEnv: func(name string) (string, bool) {
			v, ok := f.env[name]
			return v, ok
		},
		Now:    func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) },
		DryRun: dryRun,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) dist(name string) string {
	return filepath.Join(f.cfg.OutputDir, name)
}

func (f *fixture) upload(path, channelName string) string {
	return fmt.Sprintf("aws s3 cp %s s3://desktop-releases/%s/%s", path, channelName, filepath.Base(path))
}

func (f *fixture) manifestVersion(t *testing.T) string {
	t.Helper()
	m, err := manifest.Load(f.cfg.Manifest)
	require.NoError(t, err)
	v, err := m.Version()
	require.NoError(t, err)
	return v
}

func syncLines(source, target string) []string {
	lines := []string{
		"git fetch origin --prune",
		"git checkout " + source,
		"git pull origin " + source,
		"git checkout " + target,
		"git reset --hard origin/" + target,
	}
	if source != target {
		lines = append(lines, "git merge --no-edit "+source)
	}
	return lines
}

var buildLines = []string{
	"yarn install --frozen-lockfile",
	"yarn run build",
	"yarn test",
}

func indexOf(lines []string, line string) int {
	return slices.Index(lines, line)
}

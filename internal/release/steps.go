package release

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zorak1103/releasectl/internal/channel"
	apperrors "github.com/zorak1103/releasectl/internal/errors"
	"github.com/zorak1103/releasectl/internal/manifest"
	"github.com/zorak1103/releasectl/internal/prompt"
	"github.com/zorak1103/releasectl/internal/reporting"
	"github.com/zorak1103/releasectl/internal/runner"
	"github.com/zorak1103/releasectl/internal/state"
	"github.com/zorak1103/releasectl/internal/versioning"
)

// Variables available to storage.upload_command.
const (
	VarArtifactPath   = "ARTIFACT_PATH"
	VarArtifactName   = "ARTIFACT_NAME"
	VarReleaseChannel = "RELEASE_CHANNEL"
	VarReleaseVersion = "RELEASE_VERSION"
	VarStorageBucket  = "STORAGE_BUCKET"
)

func git(args ...string) runner.Command {
	return runner.New("git", args...)
}

func (c *Controller) run(ctx context.Context, cmds ...runner.Command) error {
	for _, cmd := range cmds {
		if err := c.runner.Run(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

// runConfigured parses and runs a configured command line. vars are expanded
// in the line and exported to the command's environment.
// It reports false without running anything when the line is blank.
func (c *Controller) runConfigured(ctx context.Context, line string, vars map[string]string) (bool, error) {
	if strings.TrimSpace(line) == "" {
		return false, nil
	}
	cmd, err := runner.Parse(line, vars)
	if err != nil {
		return false, err
	}
	for _, name := range slices.Sorted(maps.Keys(vars)) {
		cmd.Env = append(cmd.Env, name+"="+vars[name])
	}
	return true, c.runner.Run(ctx, cmd)
}

// ValidateEnvironment fails on the first required signing variable that is unset or empty.
func (c *Controller) ValidateEnvironment() error {
	for _, name := range c.cfg.Signing.RequiredEnv {
		if v, ok := c.lookupEnv(name); !ok || v == "" {
			return &apperrors.MissingEnvError{Name: name}
		}
	}
	return nil
}

// ConfirmOrAbort asks a yes/no question and returns apperrors.ErrAborted on no.
func (c *Controller) ConfirmOrAbort(title, description string) error {
	ok, err := c.prompter.Confirm(title, description)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrAborted
	}
	return nil
}

// SyncBranches brings the target branch up to date and merges the source into it.
func (c *Controller) SyncBranches(ctx context.Context, intent Intent) error {
	remote := c.cfg.Remote
	cmds := []runner.Command{
		git("fetch", remote, "--prune"),
		git("checkout", intent.SourceBranch),
		git("pull", remote, intent.SourceBranch),
		git("checkout", intent.TargetBranch),
		git("reset", "--hard", remote+"/"+intent.TargetBranch),
	}
	if intent.SourceBranch != intent.TargetBranch {
		cmds = append(cmds, git("merge", "--no-edit", intent.SourceBranch))
	}
	return c.run(ctx, cmds...)
}

// BuildAndTest runs the install, plugins, build and test commands in order
// and returns the names of the ones left empty in the configuration.
func (c *Controller) BuildAndTest(ctx context.Context) ([]string, error) {
	pipeline := []struct {
		name string
		line string
	}{
		{"install", c.cfg.Commands.Install},
		{"plugins", c.cfg.Commands.Plugins},
		{"build", c.cfg.Commands.Build},
		{"test", c.cfg.Commands.Test},
	}

	var skipped []string
	for _, p := range pipeline {
		ran, err := c.runConfigured(ctx, p.line, nil)
		if err != nil {
			return nil, fmt.Errorf("%s failed: %w", p.name, err)
		}
		if !ran {
			skipped = append(skipped, p.name)
		}
	}
	return skipped, nil
}

// SelectVersion offers the candidates for current and returns the chosen one.
func (c *Controller) SelectVersion(current string, t Type) (string, error) {
	candidates, err := versioning.DetailedCandidates(current, t.IsPreview(), c.cfg.Preid)
	if err != nil {
		return "", err
	}

	options := make([]prompt.Option, 0, len(candidates))
	versions := make([]string, 0, len(candidates))
	for _, cand := range candidates {
		options = append(options, prompt.Option{
			Label: fmt.Sprintf("%s (%s)", cand.Version, cand.Kind),
			Value: cand.Version,
		})
		versions = append(versions, cand.Version)
	}

	chosen, err := c.prompter.Select("Next version", fmt.Sprintf("Current version is %s", current), options)
	if err != nil {
		return "", err
	}
	if !slices.Contains(versions, chosen) {
		return "", fmt.Errorf("version %q is not one of the offered candidates %v", chosen, versions)
	}
	return chosen, nil
}

// packageRelease writes the new version to the manifest, runs the packager and
// records the packaged release so it can be continued later.
func (c *Controller) packageRelease(ctx context.Context, r *releaseRun, m *manifest.Manifest) error {
	if err := m.SetVersion(r.version); err != nil {
		return err
	}
	if c.dryRun {
		c.infof("Would set version %s in %s", r.version, m.Path())
	} else if err := m.Save(); err != nil {
		return err
	}

	if _, err := c.runConfigured(ctx, c.cfg.Commands.Package, nil); err != nil {
		return fmt.Errorf("package failed: %w", err)
	}

	if c.dryRun {
		return nil
	}

	installer := ""
	if _, artifacts, err := channel.Find(c.cfg.OutputDir, r.channel); err == nil {
		installer = artifacts.Installer
	}
	return c.state.MarkPackaged(state.Release{
		ReleaseType:     string(r.intent.Type),
		SourceBranch:    r.intent.SourceBranch,
		TargetBranch:    r.intent.TargetBranch,
		Channel:         r.channel,
		PreviousVersion: r.previous,
		Version:         r.version,
		Installer:       installer,
		PackagedAt:      c.now(),
	})
}

// LocateArtifacts finds the installer the packager produced for channelName
// and checks the channel descriptor describes version.
func (c *Controller) LocateArtifacts(channelName, version string) (channel.Artifacts, error) {
	d, artifacts, err := channel.Find(c.cfg.OutputDir, channelName)
	if err != nil {
		var missing *apperrors.MissingArtifactError
		if c.dryRun && errors.As(err, &missing) {
			c.warnf("%v; using placeholder paths for the dry run", err)
			return channel.Artifacts{
				Installer:  filepath.Join(c.cfg.OutputDir, "<installer>"),
				Descriptor: channel.DescriptorPath(c.cfg.OutputDir, channelName),
			}, nil
		}
		return channel.Artifacts{}, err
	}

	if d.Version != version {
		err := fmt.Errorf("channel descriptor %s describes version %q, expected %q",
			artifacts.Descriptor, d.Version, version)
		if !c.dryRun {
			return channel.Artifacts{}, err
		}
		c.warnf("%v", err)
	}
	return artifacts, nil
}

// manualVerify shows where the installer is and asks for the go-ahead to deploy.
func (c *Controller) manualVerify(r *releaseRun) error {
	c.step("Verify installer")
	c.infof("Installer: %s", r.artifacts.Installer)
	_, _ = fmt.Fprintf(c.out, "Install and launch it, then check the application reports version %s.\n", r.version)

	return c.ConfirmOrAbort(
		fmt.Sprintf("Deploy %s to channel %s?", r.tag(), r.channel),
		"The release will be tagged, uploaded and pushed.",
	)
}

// publishAndTag commits the version bump, tags it, uploads artifacts and pushes.
func (c *Controller) publishAndTag(ctx context.Context, r *releaseRun) error {
	c.step("Publish")

	if r.stage.Reached(state.StageTagged) {
		c.infof("%s is already committed and tagged, continuing with the upload", r.tag())
		r.summary.AddStep("Commit and tag", reporting.StatusSkipped, "already tagged "+r.tag())
	} else {
		if !r.stage.Reached(state.StageCommitted) {
			if err := c.run(ctx,
				git("add", c.cfg.Manifest),
				git("commit", "-m", r.tag()),
			); err != nil {
				return err
			}
			if err := c.advance(r, state.StageCommitted); err != nil {
				return err
			}
		}
		if err := c.run(ctx, git("tag", r.tag())); err != nil {
			return err
		}
		if err := c.advance(r, state.StageTagged); err != nil {
			return err
		}
		r.summary.AddStep("Commit and tag", c.status(), r.tag())
	}

	if c.cfg.ErrorTracking.Enabled {
		if err := c.registerErrorTracking(ctx, r.version); err != nil {
			return fmt.Errorf("error tracking release failed: %w", err)
		}
		r.summary.AddStep("Error tracking", c.status(), r.version)
	} else {
		r.summary.AddStep("Error tracking", reporting.StatusSkipped, "disabled")
	}

	for _, path := range r.artifacts.All() {
		vars := map[string]string{
			VarArtifactPath:   path,
			VarArtifactName:   filepath.Base(path),
			VarReleaseChannel: r.channel,
			VarReleaseVersion: r.version,
			VarStorageBucket:  c.cfg.Storage.Bucket,
		}
		if _, err := c.runConfigured(ctx, c.cfg.Storage.UploadCommand, vars); err != nil {
			return fmt.Errorf("upload of %s failed: %w", path, err)
		}
	}
	r.summary.AddStep("Upload artifacts", c.status(), fmt.Sprintf("%d files", len(r.artifacts.All())))

	if err := c.run(ctx,
		git("push", c.cfg.Remote, r.intent.TargetBranch),
		git("push", c.cfg.Remote, r.tag()),
	); err != nil {
		return err
	}
	r.summary.AddStep("Push", c.status(), r.intent.TargetBranch+", "+r.tag())
	return nil
}

// advance records that the run reached stage. Dry runs record nothing.
func (c *Controller) advance(r *releaseRun, stage state.Stage) error {
	if c.dryRun {
		return nil
	}
	if err := c.state.Advance(stage); err != nil {
		return fmt.Errorf("failed to record release stage %s: %w", stage, err)
	}
	r.stage = stage
	return nil
}

// registerErrorTracking creates the release in the error tracker, associates
// commits, uploads source maps and finalizes it.
func (c *Controller) registerErrorTracking(ctx context.Context, version string) error {
	et := c.cfg.ErrorTracking
	base, err := runner.Parse(et.Command, nil)
	if err != nil {
		return err
	}

	releases := func(args ...string) runner.Command {
		a := append(slices.Clone(base.Args), "releases")
		if et.Org != "" {
			a = append(a, "--org", et.Org)
		}
		if et.Project != "" {
			a = append(a, "--project", et.Project)
		}
		return runner.New(base.Name, append(a, args...)...)
	}

	cmds := []runner.Command{
		releases("new", version),
		releases("set-commits", "--auto", version),
	}
	if et.SourcemapsDir != "" {
		upload := []string{"files", version, "upload-sourcemaps", et.SourcemapsDir}
		if et.URLPrefix != "" {
			upload = append(upload, "--url-prefix", et.URLPrefix)
		}
		cmds = append(cmds, releases(upload...))
	}
	cmds = append(cmds, releases("finalize", version))

	return c.run(ctx, cmds...)
}

// mergeBack merges the released target into each merge-back branch.
// Preview releases are never merged back.
func (c *Controller) mergeBack(ctx context.Context, r *releaseRun) error {
	if r.intent.Type.IsPreview() {
		r.summary.AddStep("Merge back", reporting.StatusSkipped, "preview releases are not merged back")
		return nil
	}

	c.step("Merge back")
	target := r.intent.TargetBranch
	var merged []string
	for _, branch := range c.cfg.Branches.MergeBack {
		if branch == "" || branch == target {
			continue
		}
		if err := c.run(ctx,
			git("checkout", branch),
			git("pull", c.cfg.Remote, branch),
			git("merge", "--no-edit", target),
			git("push", c.cfg.Remote, branch),
		); err != nil {
			return fmt.Errorf("merge back into %s failed: %w", branch, err)
		}
		merged = append(merged, branch)
	}

	if len(merged) == 0 {
		r.summary.AddStep("Merge back", reporting.StatusSkipped, "no merge-back branches")
		return nil
	}
	if err := c.run(ctx, git("checkout", target)); err != nil {
		return err
	}
	r.summary.AddStep("Merge back", c.status(), strings.Join(merged, ", "))
	return nil
}

// Package release sequences a desktop application release: branch sync,
// build and test, version bump, packaging, manual verification, publishing
// and merge-back.
//
// External tools are reached only through runner.CommandRunner and operator
// decisions only through prompt.Prompter, so the whole flow runs against fakes
// in tests.
package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zorak1103/releasectl/internal/channel"
	"github.com/zorak1103/releasectl/internal/config"
	"github.com/zorak1103/releasectl/internal/console"
	apperrors "github.com/zorak1103/releasectl/internal/errors"
	"github.com/zorak1103/releasectl/internal/manifest"
	"github.com/zorak1103/releasectl/internal/notification"
	"github.com/zorak1103/releasectl/internal/prompt"
	"github.com/zorak1103/releasectl/internal/reporting"
	"github.com/zorak1103/releasectl/internal/runner"
	"github.com/zorak1103/releasectl/internal/state"
)

// ResumeMode selects where a run starts.
type ResumeMode int

const (
	// Fresh starts from release type selection.
	Fresh ResumeMode = iota
	// ContinueFromPackaged re-enters at manual verification using the saved state.
	ContinueFromPackaged
)

func (m ResumeMode) String() string {
	switch m {
	case Fresh:
		return "fresh"
	case ContinueFromPackaged:
		return "continue"
	default:
		return fmt.Sprintf("ResumeMode(%d)", int(m))
	}
}

// ErrNothingToContinue is returned for ContinueFromPackaged without a packaged release.
var ErrNothingToContinue = errors.New("no packaged release to continue")

// Options configures a Controller.
type Options struct {
	Config   *config.Config
	Runner   runner.CommandRunner
	Prompter prompt.Prompter
	State    *state.State
	Notifier *notification.Notifier // nil disables notifications

	Out       io.Writer                   // defaults to os.Stdout
	LookupEnv func(string) (string, bool) // defaults to os.LookupEnv
	Now       func() time.Time            // defaults to time.Now
	DryRun    bool                        // print commands, write nothing
}

// Controller runs the release flow.
type Controller struct {
	cfg       *config.Config
	runner    runner.CommandRunner
	prompter  prompt.Prompter
	state     *state.State
	notifier  *notification.Notifier
	out       io.Writer
	lookupEnv func(string) (string, bool)
	now       func() time.Time
	dryRun    bool
}

// New creates a Controller.
func New(opts Options) (*Controller, error) {
	switch {
	case opts.Config == nil:
		return nil, errors.New("release controller requires a config")
	case opts.Runner == nil:
		return nil, errors.New("release controller requires a command runner")
	case opts.Prompter == nil:
		return nil, errors.New("release controller requires a prompter")
	case opts.State == nil:
		return nil, errors.New("release controller requires a state store")
	}

	c := &Controller{
		cfg:       opts.Config,
		runner:    opts.Runner,
		prompter:  opts.Prompter,
		state:     opts.State,
		notifier:  opts.Notifier,
		out:       opts.Out,
		lookupEnv: opts.LookupEnv,
		now:       opts.Now,
		dryRun:    opts.DryRun,
	}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.lookupEnv == nil {
		c.lookupEnv = os.LookupEnv
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// releaseRun carries everything decided during one run.
type releaseRun struct {
	intent    Intent
	channel   string
	previous  string
	version   string
	artifacts channel.Artifacts
	summary   *reporting.Summary
	stage     state.Stage // last persisted stage; empty before packaging
}

func (r *releaseRun) tag() string {
	return "v" + r.version
}

func (c *Controller) newRun(intent Intent) *releaseRun {
	name := channel.Name(intent.Type.IsPreview(), c.cfg.Channels)
	return &releaseRun{
		intent:  intent,
		channel: name,
		summary: &reporting.Summary{
			ReleaseType:  string(intent.Type),
			SourceBranch: intent.SourceBranch,
			TargetBranch: intent.TargetBranch,
			Channel:      name,
			DryRun:       c.dryRun,
		},
	}
}

// Run executes the release flow and returns its summary.
// A declined confirmation returns apperrors.ErrAborted.
func (c *Controller) Run(ctx context.Context, mode ResumeMode) (*reporting.Summary, error) {
	started := c.now()

	if err := c.ValidateEnvironment(); err != nil {
		return nil, err
	}

	var (
		r   *releaseRun
		err error
	)
	switch mode {
	case Fresh:
		r, err = c.prepare(ctx)
	case ContinueFromPackaged:
		r, err = c.resume()
	default:
		err = fmt.Errorf("unsupported resume mode %s", mode)
	}
	if err != nil {
		return nil, err
	}
	r.summary.Started = started

	c.step("Locate installer")
	if r.artifacts, err = c.LocateArtifacts(r.channel, r.version); err != nil {
		return nil, err
	}
	r.summary.Artifacts = r.artifacts.All()
	r.summary.AddStep("Locate installer", reporting.StatusDone, r.artifacts.Installer)

	if err := c.manualVerify(r); err != nil {
		return nil, err
	}
	if err := c.publishAndTag(ctx, r); err != nil {
		return nil, err
	}
	if err := c.mergeBack(ctx, r); err != nil {
		return nil, err
	}

	c.finish(r, started)
	return r.summary, nil
}

// prepare runs everything up to and including packaging.
func (c *Controller) prepare(ctx context.Context) (*releaseRun, error) {
	if pending, ok := c.state.Packaged(); ok {
		c.warnf("A packaged release v%s is pending and will be replaced; use --continue to publish it instead", pending.Version)
	}

	intent, err := SelectReleaseIntent(c.prompter, c.cfg.Branches)
	if err != nil {
		return nil, err
	}
	r := c.newRun(intent)

	c.step("Sync branches")
	if err := c.SyncBranches(ctx, intent); err != nil {
		return nil, err
	}
	r.summary.AddStep("Sync branches", c.status(), fmt.Sprintf("%s → %s", intent.SourceBranch, intent.TargetBranch))

	c.step("Build and test")
	skipped, err := c.BuildAndTest(ctx)
	if err != nil {
		return nil, err
	}
	detail := ""
	if len(skipped) > 0 {
		detail = fmt.Sprintf("skipped: %v", skipped)
	}
	r.summary.AddStep("Build and test", c.status(), detail)

	m, err := manifest.Load(c.cfg.Manifest)
	if err != nil {
		return nil, err
	}
	if r.previous, err = m.Version(); err != nil {
		return nil, err
	}

	c.step("Select version")
	if r.version, err = c.SelectVersion(r.previous, intent.Type); err != nil {
		return nil, err
	}
	r.summary.PreviousVersion, r.summary.Version, r.summary.Tag = r.previous, r.version, r.tag()

	if err := c.ConfirmOrAbort(
		fmt.Sprintf("Package %s for channel %s?", r.tag(), r.channel),
		fmt.Sprintf("%s will be bumped from %s to %s before packaging.", m.Path(), r.previous, r.version),
	); err != nil {
		return nil, err
	}

	c.step("Package")
	if err := c.packageRelease(ctx, r, m); err != nil {
		return nil, err
	}
	r.summary.AddStep("Package", c.status(), r.tag())
	return r, nil
}

// resume rebuilds a run from the packaged state.
func (c *Controller) resume() (*releaseRun, error) {
	pending, ok := c.state.Packaged()
	if !ok {
		return nil, &apperrors.ConfigurationError{
			ConfigPath: c.state.Path(),
			Key:        "output.state_file",
			Err:        ErrNothingToContinue,
		}
	}

	t, err := ParseType(pending.ReleaseType)
	if err != nil {
		return nil, &apperrors.ConfigurationError{ConfigPath: c.state.Path(), Key: "release.release_type", Err: err}
	}

	m, err := manifest.Load(c.cfg.Manifest)
	if err != nil {
		return nil, err
	}
	current, err := m.Version()
	if err != nil {
		return nil, err
	}
	if current != pending.Version {
		return nil, &apperrors.ConfigurationError{
			ConfigPath: c.state.Path(),
			Key:        "release.version",
			Err:        fmt.Errorf("packaged release is %s but %s is at %s", pending.Version, m.Path(), current),
		}
	}

	r := c.newRun(Intent{Type: t, SourceBranch: pending.SourceBranch, TargetBranch: pending.TargetBranch})
	if pending.Channel != "" {
		r.channel = pending.Channel
		r.summary.Channel = pending.Channel
	}
	r.previous, r.version = pending.PreviousVersion, pending.Version
	r.summary.PreviousVersion, r.summary.Version, r.summary.Tag = r.previous, r.version, r.tag()
	r.summary.Resumed = true
	r.stage = pending.Stage

	c.infof("Continuing %s release %s on channel %s (packaged %s)",
		t, r.tag(), r.channel, pending.PackagedAt.Format(time.RFC822))
	return r, nil
}

func (c *Controller) finish(r *releaseRun, started time.Time) {
	c.step("Done")

	if !c.dryRun {
		if err := c.state.Delete(); err != nil {
			c.warnf("Failed to clear release state: %v", err)
		}
	}

	r.summary.Duration = c.now().Sub(started)

	reportPath, err := reporting.SaveReport(r.channel, reporting.GenerateReleaseReport(r.summary), c.cfg)
	if err != nil {
		c.warnf("Failed to save release report: %v", err)
		reportPath = ""
	} else {
		c.infof("Report saved to %s", reportPath)
	}

	if !c.dryRun && c.notifier.IsEnabled() {
		if err := c.notifier.SendReleaseSummary(notification.Release{
			Headline:  r.summary.Headline(),
			Tag:       r.tag(),
			Channel:   r.channel,
			Artifacts: len(r.summary.Artifacts),
			Report:    reportPath,
		}); err != nil {
			c.warnf("Release published but notification failed: %v", err)
		}
	}

	if c.dryRun {
		c.successf("Dry run of %s finished, nothing was changed", r.tag())
		return
	}
	c.successf("Released %s on channel %s", r.tag(), r.channel)
}

// status is the summary status of a step that ran its commands.
func (c *Controller) status() string {
	if c.dryRun {
		return reporting.StatusDryRun
	}
	return reporting.StatusDone
}

func (c *Controller) step(name string) {
	_, _ = fmt.Fprintln(c.out, console.FormatStepHeader(name))
}

func (c *Controller) infof(format string, args ...any) {
	_, _ = fmt.Fprintln(c.out, console.FormatInfoMessage(fmt.Sprintf(format, args...)))
}

func (c *Controller) warnf(format string, args ...any) {
	_, _ = fmt.Fprintln(c.out, console.FormatWarningMessage(fmt.Sprintf(format, args...)))
}

func (c *Controller) successf(format string, args ...any) {
	_, _ = fmt.Fprintln(c.out, console.FormatSuccessMessage(fmt.Sprintf(format, args...)))
}

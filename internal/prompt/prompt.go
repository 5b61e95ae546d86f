// Package prompt asks the operator questions during a release.
//
// Prompter is the capability the release flow depends on; HuhPrompter renders
// it with charmbracelet/huh forms.
package prompt

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/zorak1103/releasectl/internal/console"
	apperrors "github.com/zorak1103/releasectl/internal/errors"
	"golang.org/x/term"
)

// Errors returned before any form is drawn.
var (
	ErrNoOptions = errors.New("no options to select from")
	ErrNotTTY    = errors.New("stdin is not a TTY; releases must be run interactively")
)

// Option is one selectable choice.
type Option struct {
	Label string
	Value string
}

// Prompter asks the operator for decisions.
type Prompter interface {
	// Select returns the Value of the chosen option.
	Select(title, description string, options []Option) (string, error)
	// Confirm returns true if the operator answered yes.
	Confirm(title, description string) (bool, error)
}

// HuhPrompter implements Prompter with huh forms on the controlling terminal.
type HuhPrompter struct {
	isTerminal func() bool
	accessible func() bool
}

// Compile-time verification that HuhPrompter implements Prompter
var _ Prompter = (*HuhPrompter)(nil)

// NewHuhPrompter creates a prompter bound to stdin.
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }, // #nosec G115 -- fd fits in int
		accessible: console.IsAccessibleMode,
	}
}

func (p *HuhPrompter) ready() error {
	// Accessible mode reads plain lines, so it also works when piped.
	if p.accessible() || p.isTerminal() {
		return nil
	}
	return ErrNotTTY
}

// Select asks the operator to choose one option.
func (p *HuhPrompter) Select(title, description string, options []Option) (string, error) {
	if len(options) == 0 {
		return "", ErrNoOptions
	}
	if err := p.ready(); err != nil {
		return "", err
	}

	huhOptions := make([]huh.Option[string], 0, len(options))
	for _, opt := range options {
		huhOptions = append(huhOptions, huh.NewOption(opt.Label, opt.Value))
	}

	selected := options[0].Value
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Description(description).
				Options(huhOptions...).
				Value(&selected),
		),
	).WithAccessible(p.accessible())

	if err := form.Run(); err != nil {
		return "", wrapFormError(title, err)
	}
	return selected, nil
}

// Confirm asks a yes/no question; the default answer is no.
func (p *HuhPrompter) Confirm(title, description string) (bool, error) {
	if err := p.ready(); err != nil {
		return false, err
	}

	confirmed := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&confirmed),
		),
	).WithAccessible(p.accessible())

	if err := form.Run(); err != nil {
		return false, wrapFormError(title, err)
	}
	return confirmed, nil
}

// wrapFormError treats Ctrl+C / Esc like declining the release.
func wrapFormError(title string, err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return fmt.Errorf("prompt %q cancelled: %w", title, apperrors.ErrAborted)
	}
	return fmt.Errorf("prompt %q failed: %w", title, err)
}

package release

import (
	"fmt"
	"slices"

	"github.com/zorak1103/releasectl/internal/config"
	"github.com/zorak1103/releasectl/internal/prompt"
)

// Type is the kind of release the operator chose.
type Type string

// Release types.
const (
	Normal  Type = "normal"
	Preview Type = "preview"
)

// IsPreview reports whether t publishes to the preview channel.
func (t Type) IsPreview() bool {
	return t == Preview
}

// ParseType converts a persisted or selected value to a Type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case Normal, Preview:
		return Type(s), nil
	default:
		return "", fmt.Errorf("unknown release type %q (want %q or %q)", s, Normal, Preview)
	}
}

// Intent is what the operator decided to release and between which branches.
type Intent struct {
	Type         Type
	SourceBranch string
	TargetBranch string
}

// PreviewIntent returns the fixed branch pair used for preview releases.
func PreviewIntent(b config.BranchesConfig) Intent {
	return Intent{Type: Preview, SourceBranch: b.PreviewSource, TargetBranch: b.PreviewTarget}
}

// NormalIntent returns a normal release from source into the normal target.
func NormalIntent(b config.BranchesConfig, source string) Intent {
	return Intent{Type: Normal, SourceBranch: source, TargetBranch: b.NormalTarget}
}

// SelectReleaseIntent asks for the release type and, for normal releases, the source branch.
func SelectReleaseIntent(p prompt.Prompter, b config.BranchesConfig) (Intent, error) {
	choice, err := p.Select("Release type", "Preview releases go to testers, normal releases to everyone.", []prompt.Option{
		{Label: fmt.Sprintf("Normal (into %s)", b.NormalTarget), Value: string(Normal)},
		{Label: fmt.Sprintf("Preview (%s → %s)", b.PreviewSource, b.PreviewTarget), Value: string(Preview)},
	})
	if err != nil {
		return Intent{}, err
	}

	t, err := ParseType(choice)
	if err != nil {
		return Intent{}, err
	}
	if t.IsPreview() {
		return PreviewIntent(b), nil
	}

	options := make([]prompt.Option, 0, len(b.NormalSources))
	for _, name := range b.NormalSources {
		options = append(options, prompt.Option{Label: name, Value: name})
	}

	source, err := p.Select("Source branch", fmt.Sprintf("Branch to merge into %s", b.NormalTarget), options)
	if err != nil {
		return Intent{}, err
	}
	if !slices.Contains(b.NormalSources, source) {
		return Intent{}, fmt.Errorf("source branch %q is not one of %v", source, b.NormalSources)
	}
	return NormalIntent(b, source), nil
}

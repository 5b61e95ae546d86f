package prompt

import (
	"errors"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/zorak1103/releasectl/internal/errors"
)

func nonInteractive() *HuhPrompter {
	return &HuhPrompter{
		isTerminal: func() bool { return false },
		accessible: func() bool { return false },
	}
}

func TestSelect_RequiresOptions(t *testing.T) {
	t.Parallel()

	_, err := nonInteractive().Select("Release type", "", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoOptions)
}

func TestSelect_RequiresTTY(t *testing.T) {
	t.Parallel()

	_, err := nonInteractive().Select("Release type", "Choose one", []Option{
		{Label: "Normal", Value: "normal"},
		{Label: "Preview", Value: "preview"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotTTY)
	assert.Contains(t, err.Error(), "not a TTY")
}

func TestConfirm_RequiresTTY(t *testing.T) {
	t.Parallel()

	ok, err := nonInteractive().Confirm("Package 1.2.4?", "")
	require.Error(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNotTTY)
}

func TestWrapFormError(t *testing.T) {
	t.Parallel()

	aborted := wrapFormError("Deploy?", huh.ErrUserAborted)
	assert.ErrorIs(t, aborted, apperrors.ErrAborted)
	assert.Contains(t, aborted.Error(), `"Deploy?"`)

	other := wrapFormError("Deploy?", errors.New("terminal gone"))
	assert.NotErrorIs(t, other, apperrors.ErrAborted)
	assert.Contains(t, other.Error(), "terminal gone")
}

func TestNewHuhPrompter(t *testing.T) {
	t.Parallel()

	p := NewHuhPrompter()
	require.NotNil(t, p.isTerminal)
	require.NotNil(t, p.accessible)
}

package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format func(string) string
		prefix string
	}{
		{name: "success", format: FormatSuccessMessage, prefix: "✅"},
		{name: "info", format: FormatInfoMessage, prefix: "ℹ️"},
		{name: "warning", format: FormatWarningMessage, prefix: "⚠️"},
		{name: "error", format: FormatErrorMessage, prefix: "❌"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.format("tagged v1.2.4")
			assert.Contains(t, out, tt.prefix)
			assert.Contains(t, out, "tagged v1.2.4")
		})
	}
}

func TestFormatCommandAndStep(t *testing.T) {
	t.Parallel()

	assert.Contains(t, FormatCommandMessage("git push origin master"), "git push origin master")
	assert.Contains(t, FormatStepHeader("Sync branches"), "Sync branches")
}

func TestIsAccessibleMode(t *testing.T) {
	t.Setenv("ACCESSIBLE", "")
	t.Setenv("TERM", "xterm-256color")
	assert.False(t, IsAccessibleMode())

	t.Setenv("TERM", "dumb")
	assert.True(t, IsAccessibleMode())

	t.Setenv("TERM", "xterm-256color")
	t.Setenv("ACCESSIBLE", "1")
	assert.True(t, IsAccessibleMode())
}

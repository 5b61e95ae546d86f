package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/zorak1103/releasectl/internal/errors"
)

func TestMaskShoutrrrURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: "❌ Not configured"},
		{name: "discord", input: "discord://token@channel", expected: "✅ Configured (discord://***)"},
		{name: "slack", input: "slack://a/b/c", expected: "✅ Configured (slack://***)"},
		{name: "no scheme", input: "not-a-url", expected: "✅ Configured (invalid format)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, maskShoutrrrURL(tt.input))
		})
	}
}

func TestValidateConfigOrExit(t *testing.T) {
	originalErr := errConfigLoad
	errConfigLoad = errors.New("yaml: line 3: mapping values are not allowed")
	t.Cleanup(func() { errConfigLoad = originalErr })

	err := validateConfigOrExit(nil, "run")
	require.Error(t, err)

	var cfgErr *apperrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "run needs a valid configuration")
	assert.Contains(t, err.Error(), "mapping values are not allowed")
	assert.Contains(t, err.Error(), "releasectl init")

	assert.NoError(t, validateConfigOrExit(loadTestConfig(t, ""), "run"))
}

func TestPrintConfig_NeverShowsSecrets(t *testing.T) {
	t.Parallel()

	c := loadTestConfig(t, `notification:
  enabled: true
  shoutrrr_url: "discord://secret-token@12345"
`)

	env := map[string]string{"CSC_LINK": "/secret/cert.p12", "CSC_KEY_PASSWORD": ""}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	var buf bytes.Buffer
	printConfig(&buf, c, lookup)
	output := buf.String()

	assert.Contains(t, output, "releases.example.com")
	assert.Contains(t, output, "discord://***")
	assert.NotContains(t, output, "secret-token")
	assert.NotContains(t, output, "/secret/cert.p12")
	assert.Contains(t, output, "CSC_LINK:")
	assert.Contains(t, output, "✅ set")
	assert.Contains(t, output, "❌ Not set")
	assert.Contains(t, output, "staging, preview")
}

func TestConfigCmd_PrintsLoadedConfig(t *testing.T) {
	useConfig(t, loadTestConfig(t, "remote: upstream\n"))

	output, err := execute(t, configCmd)
	require.NoError(t, err)
	assert.Contains(t, output, "Effective Configuration")
	assert.Contains(t, output, "upstream")
}

func TestDisplayHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "(skipped)", displayCommand("  "))
	assert.Equal(t, "yarn test", displayCommand("yarn test"))
	assert.Equal(t, "(none)", displayList(nil))
	assert.Equal(t, "a, b", displayList([]string{"a", "b"}))
	assert.Equal(t, "❌ Not set", displayValue(""))
}

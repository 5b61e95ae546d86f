// Package config handles configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the release configuration
type Config struct {
	Manifest      string              `mapstructure:"manifest"`
	OutputDir     string              `mapstructure:"output_dir"`
	Remote        string              `mapstructure:"remote"`
	Preid         string              `mapstructure:"preid"`
	Branches      BranchesConfig      `mapstructure:"branches"`
	Channels      ChannelsConfig      `mapstructure:"channels"`
	Signing       SigningConfig       `mapstructure:"signing"`
	Commands      CommandsConfig      `mapstructure:"commands"`
	ErrorTracking ErrorTrackingConfig `mapstructure:"error_tracking"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Notification  NotificationConfig  `mapstructure:"notification"`
	Output        OutputConfig        `mapstructure:"output"`

	// ConfigFilePath stores the path to the loaded config file (not marshaled from YAML)
	ConfigFilePath string `mapstructure:"-"`
}

// BranchesConfig names the branches a release moves between
type BranchesConfig struct {
	PreviewSource string   `mapstructure:"preview_source"`
	PreviewTarget string   `mapstructure:"preview_target"`
	NormalSources []string `mapstructure:"normal_sources"`
	NormalTarget  string   `mapstructure:"normal_target"`
	MergeBack     []string `mapstructure:"merge_back"`
}

// ChannelsConfig maps release types to update channel names.
// The packager writes <channel>.yml into the output directory.
type ChannelsConfig struct {
	Normal  string `mapstructure:"normal"`
	Preview string `mapstructure:"preview"`
}

// SigningConfig lists the code-signing credentials the packager needs
type SigningConfig struct {
	RequiredEnv []string `mapstructure:"required_env"`
}

// CommandsConfig holds the build pipeline commands as shell-word strings.
// An empty command skips its step, except Package which is required.
type CommandsConfig struct {
	Install string `mapstructure:"install"`
	Plugins string `mapstructure:"plugins"`
	Build   string `mapstructure:"build"`
	Test    string `mapstructure:"test"`
	Package string `mapstructure:"package"`
}

// ErrorTrackingConfig contains settings for the error-tracking CLI
type ErrorTrackingConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Command       string `mapstructure:"command"`
	Org           string `mapstructure:"org"`
	Project       string `mapstructure:"project"`
	SourcemapsDir string `mapstructure:"sourcemaps_dir"`
	URLPrefix     string `mapstructure:"url_prefix"`
}

// StorageConfig contains settings for uploading release artifacts
type StorageConfig struct {
	Bucket        string `mapstructure:"bucket"`
	UploadCommand string `mapstructure:"upload_command"`
}

// NotificationConfig contains notification settings
type NotificationConfig struct {
	ShoutrrURL string `mapstructure:"shoutrrr_url"` // Shoutrrr URL format
	Enabled    bool   `mapstructure:"enabled"`
}

// OutputConfig contains output path settings
type OutputConfig struct {
	ReportsDir        string `mapstructure:"reports_dir"`
	StateFile         string `mapstructure:"state_file"`
	CommandLogDir     string `mapstructure:"command_log_dir"`
	CommandLogEnabled bool   `mapstructure:"command_log_enabled"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("release")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/releasectl")
	}

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			configFile := v.ConfigFileUsed()
			if configFile == "" {
				configFile = configPath
			}
			return nil, fmt.Errorf("error reading config file from %s: %w", configFile, err)
		}
		// Config file not found; using defaults and env vars
	}

	v.SetEnvPrefix("RELEASECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		configFile := v.ConfigFileUsed()
		if configFile == "" {
			configFile = "(using defaults and environment variables)"
		}
		return nil, fmt.Errorf("error unmarshaling config from %s: %w", configFile, err)
	}

	cfg.ConfigFilePath = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		configFile := v.ConfigFileUsed()
		if configFile == "" {
			configFile = "(using defaults and environment variables)"
		}
		return nil, fmt.Errorf("config validation failed for %s: %w", configFile, err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("manifest", "package.json")
	v.SetDefault("output_dir", "dist")
	v.SetDefault("remote", "origin")
	v.SetDefault("preid", "preview")

	// Branch defaults
	v.SetDefault("branches.preview_source", "staging")
	v.SetDefault("branches.preview_target", "preview")
	v.SetDefault("branches.normal_sources", []string{"preview", "staging", "master"})
	v.SetDefault("branches.normal_target", "master")
	v.SetDefault("branches.merge_back", []string{"staging", "preview"})

	// Channel defaults
	v.SetDefault("channels.normal", "latest")
	v.SetDefault("channels.preview", "preview")

	// Signing defaults
	v.SetDefault("signing.required_env", []string{"CSC_LINK", "CSC_KEY_PASSWORD"})

	// Pipeline defaults
	v.SetDefault("commands.install", "yarn install --frozen-lockfile")
	v.SetDefault("commands.plugins", "yarn run plugins:install")
	v.SetDefault("commands.build", "yarn run build")
	v.SetDefault("commands.test", "yarn test")
	v.SetDefault("commands.package", "yarn run dist")

	// Error tracking defaults
	v.SetDefault("error_tracking.enabled", false)
	v.SetDefault("error_tracking.command", "sentry-cli")
	v.SetDefault("error_tracking.org", "")     // Required for AutomaticEnv to work
	v.SetDefault("error_tracking.project", "") // Required for AutomaticEnv to work
	v.SetDefault("error_tracking.sourcemaps_dir", "dist")
	v.SetDefault("error_tracking.url_prefix", "app:///dist")

	// Storage defaults
	v.SetDefault("storage.bucket", "") // Required for AutomaticEnv to work
	v.SetDefault("storage.upload_command", `aws s3 cp "${ARTIFACT_PATH}" "s3://${STORAGE_BUCKET}/${RELEASE_CHANNEL}/${ARTIFACT_NAME}"`)

	// Notification defaults
	v.SetDefault("notification.shoutrrr_url", "") // Required for AutomaticEnv to work
	v.SetDefault("notification.enabled", false)

	// Output defaults
	v.SetDefault("output.reports_dir", "./.releasectl/reports")
	v.SetDefault("output.state_file", "./.releasectl/state.json")
	v.SetDefault("output.command_log_dir", "./.releasectl/logs")
	v.SetDefault("output.command_log_enabled", false)
}

// Validate ensures all required fields are set and values are consistent.
func (c *Config) Validate() error {
	configSource := c.ConfigFilePath
	if configSource == "" {
		configSource = "(defaults/environment)"
	}

	if err := c.validateRequiredFields(configSource); err != nil {
		return err
	}

	return c.validateBranches(configSource)
}

func (c *Config) validateRequiredFields(configSource string) error {
	requiredFields := []struct {
		value   string
		message string
	}{
		{c.Manifest, "manifest is required in config %s"},
		{c.OutputDir, "output_dir is required in config %s"},
		{c.Remote, "remote is required in config %s"},
		{c.Channels.Normal, "channels.normal is required in config %s"},
		{c.Channels.Preview, "channels.preview is required in config %s"},
		{c.Commands.Package, "commands.package is required in config %s"},
		{c.Storage.UploadCommand, "storage.upload_command is required in config %s"},
		{c.Output.StateFile, "output.state_file is required in config %s"},
		{c.Output.ReportsDir, "output.reports_dir is required in config %s"},
	}

	for _, field := range requiredFields {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf(field.message, configSource)
		}
	}

	if c.Channels.Normal == c.Channels.Preview {
		return fmt.Errorf("channels.normal and channels.preview must differ, both are %q in config %s",
			c.Channels.Normal, configSource)
	}

	if strings.Contains(c.Storage.UploadCommand, "STORAGE_BUCKET") && strings.TrimSpace(c.Storage.Bucket) == "" {
		return fmt.Errorf("storage.bucket is required because storage.upload_command uses ${STORAGE_BUCKET} in config %s "+
			"(set it in the file or via RELEASECTL_STORAGE_BUCKET)", configSource)
	}

	if c.ErrorTracking.Enabled && strings.TrimSpace(c.ErrorTracking.Command) == "" {
		return fmt.Errorf("error_tracking.command is required when error tracking is enabled in config %s", configSource)
	}

	for i, name := range c.Signing.RequiredEnv {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("signing.required_env[%d] is empty in config %s", i, configSource)
		}
	}
	return nil
}

func (c *Config) validateBranches(configSource string) error {
	b := c.Branches
	if b.PreviewSource == "" || b.PreviewTarget == "" || b.NormalTarget == "" {
		return fmt.Errorf("branches.preview_source, branches.preview_target and branches.normal_target are required in config %s",
			configSource)
	}
	if len(b.NormalSources) == 0 {
		return fmt.Errorf("branches.normal_sources must list at least one branch in config %s", configSource)
	}
	for i, name := range b.NormalSources {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("branches.normal_sources[%d] is empty in config %s", i, configSource)
		}
	}
	return nil
}

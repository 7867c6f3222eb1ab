package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/transmute/internal/errors"
)

// newViperInstance creates a new Viper instance with standard TRANSMUTE
// configuration: environment variable prefix (TRANSMUTE_), key replacer, and
// defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("TRANSMUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not
// found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (TRANSMUTE_* prefix)
//  2. Project config (.transmute/config.yaml)
//  3. Global config (~/.transmute/config.yaml)
//  4. Built-in defaults
//
// For CLI flag overrides, use LoadWithOverrides instead.
//
// Missing config files are not errors; they are expected in many scenarios.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	// Global config first (lower precedence)
	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	// Project config merges over global
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("service.endpoint", cfg.Service.Endpoint).
		Dur("job.poll_interval", cfg.Job.PollInterval).
		Dur("maven.timeout", cfg.Maven.Timeout).
		Msg("configuration loaded and unmarshaled")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &cfg, nil
}

// loadGlobalConfig attempts to load the global config file
// (~/.transmute/config.yaml). Missing files are skipped silently.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, ok := getGlobalConfigPathIfExists()
	if !ok {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// getGlobalConfigPathIfExists returns the global config path if it exists.
func getGlobalConfigPathIfExists() (string, bool) {
	globalConfigPath, err := GlobalConfigPath()
	if err != nil {
		return "", false
	}
	if _, err := os.Stat(globalConfigPath); err != nil {
		return "", false
	}
	return globalConfigPath, true
}

// loadProjectConfig attempts to load the project config file
// (.transmute/config.yaml). Missing files are skipped silently.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

// fileExists returns true if the file at path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// Only non-zero values in overrides are applied, allowing partial overrides.
//
// Boolean fields (Notifications.Bell) cannot be overridden to false here
// because the zero value is indistinguishable from unset; the CLI handles
// boolean flags with Flags().Changed checks.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths for testing.
// Either path can be empty to skip that level.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// setDefaults configures all default values on the Viper instance.
// These defaults match the values from DefaultConfig().
// IMPORTANT: Keys must match the YAML tag names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	// Service defaults
	v.SetDefault("service.endpoint", defaults.Service.Endpoint)
	v.SetDefault("service.auth_token_env_var", defaults.Service.AuthTokenEnvVar)
	v.SetDefault("service.timeout", defaults.Service.Timeout.String())
	v.SetDefault("service.transfer_timeout", defaults.Service.TransferTimeout.String())

	// Job defaults
	v.SetDefault("job.poll_interval", defaults.Job.PollInterval.String())
	v.SetDefault("job.progress_interval", defaults.Job.ProgressInterval.String())
	v.SetDefault("job.work_dir", defaults.Job.WorkDir)

	// Maven defaults
	v.SetDefault("maven.command", defaults.Maven.Command)
	v.SetDefault("maven.timeout", defaults.Maven.Timeout.String())

	// Notifications defaults
	v.SetDefault("notifications.bell", defaults.Notifications.Bell)
}

// applyOverrides merges non-zero override values into the config.
func applyOverrides(cfg, overrides *Config) {
	if overrides.Service.Endpoint != "" {
		cfg.Service.Endpoint = overrides.Service.Endpoint
	}
	if overrides.Service.AuthTokenEnvVar != "" {
		cfg.Service.AuthTokenEnvVar = overrides.Service.AuthTokenEnvVar
	}
	if overrides.Service.Timeout != 0 {
		cfg.Service.Timeout = overrides.Service.Timeout
	}
	if overrides.Service.TransferTimeout != 0 {
		cfg.Service.TransferTimeout = overrides.Service.TransferTimeout
	}

	if overrides.Job.PollInterval != 0 {
		cfg.Job.PollInterval = overrides.Job.PollInterval
	}
	if overrides.Job.ProgressInterval != 0 {
		cfg.Job.ProgressInterval = overrides.Job.ProgressInterval
	}
	if overrides.Job.WorkDir != "" {
		cfg.Job.WorkDir = overrides.Job.WorkDir
	}

	if overrides.Maven.Command != "" {
		cfg.Maven.Command = overrides.Maven.Command
	}
	if overrides.Maven.Timeout != 0 {
		cfg.Maven.Timeout = overrides.Maven.Timeout
	}
}

// WorkDir resolves the effective job working directory.
func (c *Config) WorkDir() string {
	if c.Job.WorkDir != "" {
		return c.Job.WorkDir
	}
	return filepath.Join(os.TempDir(), "transmute")
}

// AuthToken reads the service bearer token from the configured environment
// variable. Empty when unset.
func (c *Config) AuthToken() string {
	if c.Service.AuthTokenEnvVar == "" {
		return ""
	}
	return os.Getenv(c.Service.AuthTokenEnvVar)
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}

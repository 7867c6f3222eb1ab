// Package config provides configuration management for TRANSMUTE.
//
// Configuration is loaded with layered precedence (highest first):
//  1. CLI flags
//  2. Environment variables (TRANSMUTE_* prefix)
//  3. Project config (.transmute/config.yaml)
//  4. Global config (~/.transmute/config.yaml)
//  5. Built-in defaults
package config

import "time"

// Config is the root configuration structure for TRANSMUTE.
type Config struct {
	// Service contains transformation service settings.
	Service ServiceConfig `yaml:"service" mapstructure:"service"`

	// Job contains job execution settings.
	Job JobConfig `yaml:"job" mapstructure:"job"`

	// Maven contains local build tool settings.
	Maven MavenConfig `yaml:"maven" mapstructure:"maven"`

	// Notifications contains user notification settings.
	Notifications NotificationsConfig `yaml:"notifications" mapstructure:"notifications"`
}

// ServiceConfig holds transformation service settings.
type ServiceConfig struct {
	// Endpoint is the base URL of the transformation service API.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`

	// AuthTokenEnvVar names the environment variable holding the service
	// bearer token. Tokens never live in config files.
	AuthTokenEnvVar string `yaml:"auth_token_env_var" mapstructure:"auth_token_env_var"`

	// Timeout is the per-call timeout for control-plane requests.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// TransferTimeout is the timeout for payload uploads and artifact
	// downloads, which can move large archives.
	TransferTimeout time.Duration `yaml:"transfer_timeout" mapstructure:"transfer_timeout"`
}

// JobConfig holds job execution settings.
type JobConfig struct {
	// PollInterval is how often the remote job status is polled.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// ProgressInterval is how often plan progress is refreshed on the surface.
	ProgressInterval time.Duration `yaml:"progress_interval" mapstructure:"progress_interval"`

	// WorkDir is the job working directory for payloads and temp state.
	// Empty means a directory under the system temp dir.
	WorkDir string `yaml:"work_dir" mapstructure:"work_dir"`
}

// MavenConfig holds local build tool settings.
type MavenConfig struct {
	// Command is the Maven executable to invoke.
	Command string `yaml:"command" mapstructure:"command"`

	// Timeout is the maximum duration for one Maven invocation.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// NotificationsConfig holds user notification settings.
type NotificationsConfig struct {
	// Bell enables the terminal bell on outcome notices.
	Bell bool `yaml:"bell" mapstructure:"bell"`
}

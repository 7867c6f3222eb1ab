package config

import (
	"github.com/mrz1836/transmute/internal/constants"
)

// DefaultConfig returns a new Config with sensible default values.
// These defaults are used as the base layer that can be overridden by
// config files, environment variables, and CLI flags.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			// Endpoint: empty by default; every deployment points at its own
			// service, so this must come from config or TRANSMUTE_SERVICE_ENDPOINT.
			Endpoint: "",

			// AuthTokenEnvVar: standard token environment variable.
			// This keeps tokens out of config files.
			AuthTokenEnvVar: "TRANSMUTE_SERVICE_TOKEN",

			Timeout:         constants.DefaultServiceTimeout,
			TransferTimeout: constants.DefaultTransferTimeout,
		},
		Job: JobConfig{
			PollInterval:     constants.DefaultPollInterval,
			ProgressInterval: constants.DefaultProgressInterval,

			// WorkDir: empty means use a directory under the system temp dir.
			WorkDir: "",
		},
		Maven: MavenConfig{
			// Command: "mvn" relies on PATH; override for wrapper scripts.
			Command: "mvn",

			Timeout: constants.DefaultBuildTimeout,
		},
		Notifications: NotificationsConfig{
			// Bell: on by default; transformation jobs run for a long time.
			Bell: true,
		},
	}
}

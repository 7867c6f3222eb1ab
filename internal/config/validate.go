package config

import (
	"net/url"
	"time"

	"github.com/mrz1836/transmute/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
//
// Validation rules:
//   - Service endpoint, when set, must be a valid http(s) URL
//   - Service timeouts must be positive
//   - Job poll interval must be between 1 second and 10 minutes
//   - Job progress interval must be positive
//   - Maven command must not be empty and its timeout must be positive
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateServiceConfig(&cfg.Service); err != nil {
		return err
	}
	if err := validateJobConfig(&cfg.Job); err != nil {
		return err
	}
	if err := validateMavenConfig(&cfg.Maven); err != nil {
		return err
	}
	return nil
}

// validateServiceConfig checks transformation service settings.
func validateServiceConfig(cfg *ServiceConfig) error {
	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return errors.Wrapf(errors.ErrConfigInvalidService,
				"service.endpoint must be an http(s) URL, got %q", cfg.Endpoint)
		}
	}
	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidService,
			"service.timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.TransferTimeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidService,
			"service.transfer_timeout must be positive, got %s", cfg.TransferTimeout)
	}
	return nil
}

// validateJobConfig checks job execution settings.
func validateJobConfig(cfg *JobConfig) error {
	if cfg.PollInterval < time.Second || cfg.PollInterval > 10*time.Minute {
		return errors.Wrapf(errors.ErrConfigInvalidJob,
			"job.poll_interval must be between 1s and 10m, got %s", cfg.PollInterval)
	}
	if cfg.ProgressInterval <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidJob,
			"job.progress_interval must be positive, got %s", cfg.ProgressInterval)
	}
	return nil
}

// validateMavenConfig checks local build tool settings.
func validateMavenConfig(cfg *MavenConfig) error {
	if cfg.Command == "" {
		return errors.Wrapf(errors.ErrConfigInvalidMaven,
			"maven.command must not be empty")
	}
	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidMaven,
			"maven.timeout must be positive, got %s", cfg.Timeout)
	}
	return nil
}

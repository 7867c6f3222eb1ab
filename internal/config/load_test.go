package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigFile writes YAML content to a config file in a temp dir.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromPaths(t *testing.T) {
	t.Run("no files yields defaults", func(t *testing.T) {
		cfg, err := LoadFromPaths(context.Background(), "", "")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("global config overrides defaults", func(t *testing.T) {
		globalPath := writeConfigFile(t, `
service:
  endpoint: https://transform.example.com
job:
  poll_interval: 30s
maven:
  command: ./mvnw
`)

		cfg, err := LoadFromPaths(context.Background(), "", globalPath)
		require.NoError(t, err)
		assert.Equal(t, "https://transform.example.com", cfg.Service.Endpoint)
		assert.Equal(t, 30*time.Second, cfg.Job.PollInterval)
		assert.Equal(t, "./mvnw", cfg.Maven.Command)
		// Untouched keys keep their defaults.
		assert.Equal(t, DefaultConfig().Service.Timeout, cfg.Service.Timeout)
		assert.True(t, cfg.Notifications.Bell)
	})

	t.Run("project config overrides global", func(t *testing.T) {
		globalPath := writeConfigFile(t, `
service:
  endpoint: https://global.example.com
  timeout: 45s
`)
		projectPath := writeConfigFile(t, `
service:
  endpoint: https://project.example.com
notifications:
  bell: false
`)

		cfg, err := LoadFromPaths(context.Background(), projectPath, globalPath)
		require.NoError(t, err)
		assert.Equal(t, "https://project.example.com", cfg.Service.Endpoint)
		// Keys only in the global file survive the merge.
		assert.Equal(t, 45*time.Second, cfg.Service.Timeout)
		assert.False(t, cfg.Notifications.Bell)
	})

	t.Run("missing file paths are skipped", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope.yaml")

		cfg, err := LoadFromPaths(context.Background(), missing, missing)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		globalPath := writeConfigFile(t, "service: [not a map")

		_, err := LoadFromPaths(context.Background(), "", globalPath)
		require.Error(t, err)
	})

	t.Run("invalid values fail validation", func(t *testing.T) {
		globalPath := writeConfigFile(t, `
job:
  poll_interval: 50ms
`)

		_, err := LoadFromPaths(context.Background(), "", globalPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "poll_interval")
	})
}

func TestApplyOverrides(t *testing.T) {
	t.Run("non-zero values win", func(t *testing.T) {
		cfg := DefaultConfig()
		applyOverrides(cfg, &Config{
			Service: ServiceConfig{Endpoint: "https://cli.example.com", Timeout: 90 * time.Second},
			Job:     JobConfig{PollInterval: 15 * time.Second, WorkDir: "/tmp/work"},
			Maven:   MavenConfig{Command: "mvn-wrapper"},
		})

		assert.Equal(t, "https://cli.example.com", cfg.Service.Endpoint)
		assert.Equal(t, 90*time.Second, cfg.Service.Timeout)
		assert.Equal(t, 15*time.Second, cfg.Job.PollInterval)
		assert.Equal(t, "/tmp/work", cfg.Job.WorkDir)
		assert.Equal(t, "mvn-wrapper", cfg.Maven.Command)
	})

	t.Run("zero values leave config untouched", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Service.Endpoint = "https://keep.example.com"

		applyOverrides(cfg, &Config{})

		assert.Equal(t, "https://keep.example.com", cfg.Service.Endpoint)
		assert.Equal(t, DefaultConfig().Job.PollInterval, cfg.Job.PollInterval)
	})
}

func TestWorkDir(t *testing.T) {
	t.Run("configured directory wins", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Job.WorkDir = "/data/transmute"
		assert.Equal(t, "/data/transmute", cfg.WorkDir())
	})

	t.Run("falls back to the system temp dir", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.Equal(t, filepath.Join(os.TempDir(), "transmute"), cfg.WorkDir())
	})
}

func TestAuthToken(t *testing.T) {
	t.Run("reads the configured environment variable", func(t *testing.T) {
		t.Setenv("TRANSMUTE_SERVICE_TOKEN", "secret-token")

		cfg := DefaultConfig()
		assert.Equal(t, "secret-token", cfg.AuthToken())
	})

	t.Run("empty when the variable is unset", func(t *testing.T) {
		t.Setenv("TRANSMUTE_SERVICE_TOKEN", "")

		cfg := DefaultConfig()
		assert.Empty(t, cfg.AuthToken())
	})

	t.Run("empty when no variable is configured", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Service.AuthTokenEnvVar = ""
		assert.Empty(t, cfg.AuthToken())
	})
}

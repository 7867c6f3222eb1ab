package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectLevel(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		quiet   bool
		want    zerolog.Level
	}{
		{name: "default is info", want: zerolog.InfoLevel},
		{name: "verbose is debug", verbose: true, want: zerolog.DebugLevel},
		{name: "quiet is warn", quiet: true, want: zerolog.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectLevel(tt.verbose, tt.quiet))
		})
	}
}

func TestInitLoggerWithWriter(t *testing.T) {
	t.Run("uses the configured field names", func(t *testing.T) {
		var buf bytes.Buffer
		logger := InitLoggerWithWriter(false, false, &buf)

		logger.Info().Msg("job started")

		out := buf.String()
		assert.Contains(t, out, `"event":"job started"`)
		assert.Contains(t, out, `"ts":`)
	})

	t.Run("quiet suppresses info entries", func(t *testing.T) {
		var buf bytes.Buffer
		logger := InitLoggerWithWriter(false, true, &buf)

		logger.Info().Msg("hidden")
		logger.Warn().Msg("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("flags entries carrying sensitive data", func(t *testing.T) {
		var buf bytes.Buffer
		logger := InitLoggerWithWriter(false, false, &buf)

		logger.Info().Msg("Bearer abcdefghij1234567890abcdef")

		assert.Contains(t, buf.String(), `"contains_filtered_data":true`)
	})

	t.Run("updates the zerolog global logger", func(t *testing.T) {
		var buf bytes.Buffer
		InitLoggerWithWriter(true, false, &buf)

		log.Debug().Msg("global entry")

		assert.Contains(t, buf.String(), "global entry")
	})
}

func TestGetTransmuteHome(t *testing.T) {
	t.Run("TRANSMUTE_HOME wins", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("TRANSMUTE_HOME", home)

		got, err := getTransmuteHome()
		require.NoError(t, err)
		assert.Equal(t, home, got)
	})

	t.Run("log file path lives under the home", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("TRANSMUTE_HOME", home)

		path, err := LogFilePath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "logs", "transmute.log"), path)
	})
}

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"toolrent-cli/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	app := config.AppConfig{Name: "toolrent", Environment: "test"}

	t.Run("DefaultsToWarnOnStderr", func(t *testing.T) {
		logger, closer, err := New(config.LoggingConfig{}, app)
		require.NoError(t, err)
		assert.Nil(t, closer)
		assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	})

	t.Run("UnknownLevelFallsBack", func(t *testing.T) {
		logger, _, err := New(config.LoggingConfig{Level: "chatty"}, app)
		require.NoError(t, err)
		assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())
	})

	t.Run("ConsoleStdout", func(t *testing.T) {
		logger, closer, err := New(config.LoggingConfig{Level: "debug", Output: "stdout", Format: "console"}, app)
		require.NoError(t, err)
		assert.Nil(t, closer)
		assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
	})

	t.Run("FileJSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "toolrent.log")
		logger, closer, err := New(config.LoggingConfig{Level: "info", Output: "file", Format: "json", FilePath: path}, app)
		require.NoError(t, err)
		require.NotNil(t, closer)

		logger.Info().Str("tool", "serra").Msg("hello")
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		line := string(data)
		assert.True(t, strings.Contains(line, `"tool":"serra"`))
		assert.True(t, strings.Contains(line, `"app":"toolrent"`))
	})

	t.Run("FileWithoutPath", func(t *testing.T) {
		_, _, err := New(config.LoggingConfig{Output: "file"}, app)
		assert.Error(t, err)
	})
}

package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func reset(t *testing.T) {
	t.Cleanup(func() { log = zap.NewNop() })
}

func TestLogger_NopBeforeInitialize(t *testing.T) {
	reset(t)
	assert.NotNil(t, Logger())
	assert.NotPanics(t, func() { Logger().Info("ignored") })
}

func TestInitialize_InvalidLevel(t *testing.T) {
	reset(t)
	err := Initialize("loud")
	assert.Error(t, err)
}

func TestInitialize_JSONWithServiceField(t *testing.T) {
	reset(t)
	path := filepath.Join(t.TempDir(), "app.log")

	require.NoError(t, Initialize("info", WithService("questctl"), WithOutputPaths(path)))
	Logger().Named("dispatch").Info("quest transitioned", zap.String("quest_id", "q-1"))
	Logger().Debug("filtered out")
	_ = Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "quest transitioned", entry["message"])
	assert.Equal(t, "questctl", entry["service"])
	assert.Equal(t, "dispatch", entry["logger"])
	assert.Equal(t, "q-1", entry["quest_id"])
}

func TestInitialize_ConsoleEncoding(t *testing.T) {
	reset(t)
	path := filepath.Join(t.TempDir(), "cli.log")

	require.NoError(t, Initialize("warn", WithConsoleEncoding(), WithOutputPaths(path)))
	Logger().Warn("side effect failed")
	_ = Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "side effect failed")
	assert.NotContains(t, string(data), `"message"`)
}

package adapter

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	want := DefaultConfig()
	assert.Equal(t, want.API, cfg.API)
	assert.Equal(t, want.Pager, cfg.Pager)
	assert.Equal(t, 500*time.Millisecond, cfg.Pager.Debounce)
	assert.Equal(t, 100*time.Millisecond, cfg.Pager.ReentryDelay)
	assert.True(t, cfg.Studio.UseLLMJudge)
	assert.Equal(t, 5, cfg.Search.Limit)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
api:
  base_url: http://api.example:9000/api/v1
  retry_delay: 250ms
pager:
  debounce: 1s
search:
  limit: 7
`), 0644))

	t.Setenv("PORTAL_SEARCH_LIMIT", "12")
	t.Setenv("PORTAL_STUDIO_USE_LLM_JUDGE", "false")

	cfg, err := LoadConfig(file)
	require.NoError(t, err)

	assert.Equal(t, "http://api.example:9000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.API.RetryDelay)
	assert.Equal(t, time.Second, cfg.Pager.Debounce)
	assert.Equal(t, 12, cfg.Search.Limit, "env wins over file")
	assert.False(t, cfg.Studio.UseLLMJudge)
	assert.Equal(t, 3, cfg.API.MaxRetries, "unset keys keep defaults")
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("search:\n  limit: 80\n"), 0644))

	_, err := LoadConfig(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.limit")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.API.BaseURL = "http://saved:8000/api/v1"
	cfg.Pager.PrefetchRows = 6
	cfg.API.Timeout = 15 * time.Second

	path, err := SaveConfig(cfg, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), path)

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.API, loaded.API)
	assert.Equal(t, 6, loaded.Pager.PrefetchRows)
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("shown", "loader", "locations")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "portal", entry["app"])
	assert.Equal(t, "locations", entry["loader"])
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLogLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("bogus"))
}

func TestSetupLogger_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "portal.log")

	logger, closer, err := SetupLogger(&LoggingConfig{File: path, Level: "INFO"})
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

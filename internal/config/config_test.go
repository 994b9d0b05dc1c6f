package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "packscaler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func clearEnv(t *testing.T) {
	for _, key := range []string{"TOKEN", "TEMP_DIR", "WORKERS", "LOG_LEVEL", "MAX_FILE_SIZE", "ASSETS_DIR", "FONT_FILE"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", quietLogger())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
temp_dir: /var/tmp/packscaler
workers: 6
log_level: debug
preview:
  tile_size: 64
  font_file: mono.ttf
watch:
  dir: /srv/inbox
  mode: downscale
  factor: 4
  settle: 5s
`)
	cfg, err := Load(path, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, "/var/tmp/packscaler", cfg.TempDir)
	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 64, cfg.Preview.TileSize)
	assert.Equal(t, 4, cfg.Preview.Columns)
	assert.Equal(t, "mono.ttf", cfg.Preview.FontFile)
	assert.Equal(t, "/srv/inbox", cfg.Watch.Dir)
	assert.Equal(t, "downscale", cfg.Watch.Mode)
	assert.Equal(t, 4, cfg.Watch.Factor)
	assert.Equal(t, 5*time.Second, cfg.Watch.Settle)
	assert.Equal(t, int64(20*1024*1024), cfg.MaxFileSize)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "workers: 2\nbot_token: from-file\n")
	t.Setenv("TOKEN", "from-env")
	t.Setenv("WORKERS", "8")
	t.Setenv("MAX_FILE_SIZE", "1048576")
	t.Setenv("FONT_FILE", "/fonts/a.ttf")

	cfg, err := Load(path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.BotToken)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, int64(1048576), cfg.MaxFileSize)
	assert.Equal(t, "/fonts/a.ttf", cfg.Preview.FontFile)
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKERS", "many")
	cfg, err := Load("", quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Workers)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), quietLogger())
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "workers: [1"), quietLogger())
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "log_level: loud"), quietLogger())
	assert.ErrorContains(t, err, "log_level")

	_, err = Load(writeConfig(t, "workers: -1"), quietLogger())
	assert.ErrorContains(t, err, "workers")

	_, err = Load(writeConfig(t, "preview:\n  max_tiles: 0\n"), quietLogger())
	assert.ErrorContains(t, err, "preview")
}

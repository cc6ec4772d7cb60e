package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pool_size: 128\nlog_level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.PoolSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, Default().DataDir, cfg.DataDir, "unset keys keep their defaults")
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	badYaml := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badYaml, []byte("pool_size: [not a number\n"), 0o644))
	_, err := Load(badYaml)
	require.Error(t, err)

	badPool := filepath.Join(dir, "pool.yaml")
	require.NoError(t, os.WriteFile(badPool, []byte("pool_size: -3\n"), 0o644))
	_, err = Load(badPool)
	require.Error(t, err)

	badLevel := filepath.Join(dir, "level.yaml")
	require.NoError(t, os.WriteFile(badLevel, []byte("log_level: shout\n"), 0o644))
	_, err = Load(badLevel)
	require.Error(t, err)
}

func TestBuildLogger(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "warn"

	logger, err := cfg.BuildLogger()
	require.NoError(t, err)
	defer logger.Sync()

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

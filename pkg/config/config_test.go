package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Point the default config lookup at an empty directory
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "file", cfg.Store.Type)
	assert.Equal(t, "/var/lib/rentory", cfg.Store.File["dir"])
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: debug
server:
  port: 9000
  shutdown_timeout: 10s
store:
  type: badger
  badger:
    db_path: /tmp/rentory-test.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// Levels are normalized to uppercase
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "badger", cfg.Store.Type)
	assert.Equal(t, "/tmp/rentory-test.db", cfg.Store.Badger["db_path"])
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
logging:
  level: info
`)
	t.Setenv("RENTORY_LOGGING_LEVEL", "ERROR")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ERROR", cfg.Logging.Level)
}

func TestLoad_InvalidStoreType(t *testing.T) {
	path := writeConfigFile(t, `
store:
  type: postgres
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_CustomRules(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Store.Type = "badger"
	cfg.Store.Badger = map[string]any{}
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db_path")

	cfg.Store.Badger = map[string]any{"in_memory": true}
	require.NoError(t, Validate(cfg))

	cfg = GetDefaultConfig()
	cfg.Store.File = map[string]any{}
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dir")
}

func TestCreateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		st, err := CreateStore(ctx, &StoreConfig{Type: "memory"})
		require.NoError(t, err)
		require.NoError(t, st.Close())
	})

	t.Run("file", func(t *testing.T) {
		st, err := CreateStore(ctx, &StoreConfig{
			Type: "file",
			File: map[string]any{"dir": t.TempDir()},
		})
		require.NoError(t, err)
		require.NoError(t, st.Close())
	})

	t.Run("badger_in_memory", func(t *testing.T) {
		st, err := CreateStore(ctx, &StoreConfig{
			Type:   "badger",
			Badger: map[string]any{"in_memory": true},
		})
		require.NoError(t, err)
		require.NoError(t, st.Close())
	})

	t.Run("file_missing_dir", func(t *testing.T) {
		_, err := CreateStore(ctx, &StoreConfig{Type: "file"})
		require.Error(t, err)
	})

	t.Run("unknown_type", func(t *testing.T) {
		_, err := CreateStore(ctx, &StoreConfig{Type: "postgres"})
		require.Error(t, err)
	})
}

func TestInitConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	assert.False(t, ConfigExists())

	configPath, err := InitConfig(false)
	require.NoError(t, err)
	assert.True(t, ConfigExists())

	content, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Rentory Configuration File")

	// The generated file is valid YAML and loads back cleanly
	var cfg Config
	require.NoError(t, yaml.Unmarshal(content, &cfg))

	loaded, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "file", loaded.Store.Type)

	// A second init without force refuses to overwrite
	_, err = InitConfig(false)
	require.Error(t, err)

	_, err = InitConfig(true)
	require.NoError(t, err)
}

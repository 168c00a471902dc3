package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliink/dataprocessor/internal/model"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "dataprocessor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewConfigManager(t *testing.T) {
	manager := NewConfigManager()

	assert.Equal(t, "config_manager", manager.ID())
	assert.Equal(t, "Configuration Manager", manager.Name())
	assert.Equal(t, DefaultFileConfig(), manager.Config())
	assert.Empty(t, manager.ConfigFile())
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, model.DefaultConfiguration(), cfg.Pipeline)
	assert.Equal(t, "127.0.0.1:8080", cfg.API.Addr())
	assert.Equal(t, 100*time.Millisecond, cfg.Backends[model.BackendPostgres].ConnectLatency)
	assert.Equal(t, "redis://localhost:6379", cfg.StorageOptions()[model.BackendRedis].ConnectionString)
}

func TestFileConfigValidate(t *testing.T) {
	cfg := DefaultFileConfig()
	cfg.Pipeline.Mode = "bogus"
	cfg.Pipeline.Backend = "cassandra"
	cfg.API.Port = 0
	cfg.History.Capacity = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown processing mode: bogus")
	assert.Contains(t, err.Error(), "Unknown database type: cassandra")
	assert.Contains(t, err.Error(), "api.port 0 out of range")
	assert.Contains(t, err.Error(), "history.capacity")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("LoadConfig merges the file over defaults", func(t *testing.T) {
		manager := NewConfigManager()
		path := writeConfig(t, dir, `
pipeline:
  mode: enrichment
  backend: redis
backends:
  redis:
    connect_latency: 5ms
`)
		require.NoError(t, manager.LoadConfig(path))

		cfg := manager.Config()
		assert.Equal(t, model.ModeEnrichment, cfg.Pipeline.Mode)
		assert.Equal(t, model.BackendRedis, cfg.Pipeline.Backend)
		assert.Equal(t, 5*time.Millisecond, cfg.Backends[model.BackendRedis].ConnectLatency)
		assert.Equal(t, "redis://localhost:6379", cfg.StorageOptions()[model.BackendRedis].ConnectionString)
		assert.Equal(t, 8080, cfg.API.Port)
		assert.Equal(t, path, manager.ConfigFile())
	})

	t.Run("LoadConfig expands environment variables", func(t *testing.T) {
		t.Setenv("DATAPROCESSOR_TEST_MODE", "aggregation")
		manager := NewConfigManager()
		path := writeConfig(t, dir, "pipeline:\n  mode: ${DATAPROCESSOR_TEST_MODE}\n")

		require.NoError(t, manager.LoadConfig(path))
		assert.Equal(t, model.ModeAggregation, manager.Config().Pipeline.Mode)
	})

	t.Run("LoadConfig returns error for nonexistent file", func(t *testing.T) {
		assert.Error(t, NewConfigManager().LoadConfig(filepath.Join(dir, "missing.yaml")))
	})

	t.Run("LoadConfig returns error for invalid YAML", func(t *testing.T) {
		path := writeConfig(t, dir, "pipeline: [unterminated")
		assert.Error(t, NewConfigManager().LoadConfig(path))
	})

	t.Run("LoadConfig rejects unknown tags and keeps the previous config", func(t *testing.T) {
		manager := NewConfigManager()
		path := writeConfig(t, dir, "pipeline:\n  mode: bogus\n")

		err := manager.LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unknown processing mode: bogus")
		assert.Equal(t, model.ModeValidation, manager.Config().Pipeline.Mode)
	})
}

func TestSaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager := NewConfigManager()
	require.NoError(t, manager.SetConfig("pipeline.backend", "mongodb"))

	t.Run("SaveConfig writes a file LoadConfig can read back", func(t *testing.T) {
		path := filepath.Join(dir, "saved.yaml")
		require.NoError(t, manager.SaveConfig(path))

		reloaded := NewConfigManager()
		require.NoError(t, reloaded.LoadConfig(path))
		assert.Equal(t, manager.Config(), reloaded.Config())
	})

	t.Run("SaveConfig needs a path when nothing was loaded", func(t *testing.T) {
		assert.Error(t, NewConfigManager().SaveConfig(""))
	})
}

func TestGetConfig(t *testing.T) {
	manager := NewConfigManager()

	testCases := []struct {
		name     string
		path     string
		expected any
	}{
		{"Top-level section", "api.port", 8080},
		{"Nested value", "pipeline.mode", "validation"},
		{"Duration rendered as text", "backends.postgresql.connect_latency", "100ms"},
		{"Missing key returns default", "pipeline.missing", "fallback"},
		{"Path through a scalar returns default", "pipeline.mode.deeper", "fallback"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, manager.GetConfig(tc.path, "fallback"))
		})
	}

	t.Run("Empty path returns a copy of the whole tree", func(t *testing.T) {
		tree := manager.GetConfig("", nil).(map[string]any)
		tree["api"] = "mutated"
		assert.Equal(t, 8080, manager.GetConfig("api.port", nil))
	})
}

func TestSetConfig(t *testing.T) {
	t.Run("SetConfig updates the typed view and notifies watchers", func(t *testing.T) {
		manager := NewConfigManager()
		var seen []FileConfig
		manager.OnChange(func(cfg FileConfig) { seen = append(seen, cfg) })

		require.NoError(t, manager.SetConfig("pipeline.mode", "transformation"))

		assert.Equal(t, model.ModeTransformation, manager.Config().Pipeline.Mode)
		require.Len(t, seen, 1)
		assert.Equal(t, model.ModeTransformation, seen[0].Pipeline.Mode)
	})

	t.Run("SetConfig rejects values that make the config invalid", func(t *testing.T) {
		manager := NewConfigManager()
		called := false
		manager.OnChange(func(FileConfig) { called = true })

		assert.Error(t, manager.SetConfig("pipeline.backend", "cassandra"))
		assert.Error(t, manager.SetConfig("api.port", "not-a-number"))
		assert.Error(t, manager.SetConfig("", "x"))

		assert.Equal(t, model.BackendPostgres, manager.Config().Pipeline.Backend)
		assert.False(t, called)
	})
}

func TestWatchConfig(t *testing.T) {
	t.Run("Watch requires a loaded file", func(t *testing.T) {
		assert.Error(t, NewConfigManager().Watch(context.Background()))
	})

	t.Run("Watch reloads the file and notifies watchers", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, dir, "pipeline:\n  mode: validation\n")
		manager := NewConfigManager()
		require.NoError(t, manager.LoadConfig(path))

		changes := make(chan FileConfig, 8)
		manager.OnChange(func(cfg FileConfig) { changes <- cfg })

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, manager.Watch(ctx))

		writeConfig(t, dir, "pipeline:\n  mode: enrichment\n")

		deadline := time.After(5 * time.Second)
		for {
			select {
			case cfg := <-changes:
				if cfg.Pipeline.Mode == model.ModeEnrichment {
					assert.Equal(t, model.ModeEnrichment, manager.Config().Pipeline.Mode)
					return
				}
			case <-deadline:
				t.Fatal("Timed out waiting for config reload")
			}
		}
	})
}

package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/sumstack/game/engine"
)

func createValidConfig(name string) *engine.GameConfig {
	config := engine.DefaultConfig()
	config.Name = name
	config.Description = "Test configuration"
	return config
}

func writeConfigFile(t *testing.T, dir, filename string, config *engine.GameConfig) {
	t.Helper()
	var data []byte
	var err error
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	default:
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
}

func writeRaw(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "classic.json", createValidConfig("Classic"))

		manager, err := NewManager(dir)
		require.NoError(t, err)
		assert.Equal(t, "Classic", manager.GetDefault().Name)
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/directory")
		assert.Error(t, err)
	})

	t.Run("missing default config uses first preset", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "zeta.json", createValidConfig("Zeta"))
		writeConfigFile(t, dir, "alpha.yaml", createValidConfig("Alpha"))

		manager, err := NewManager(dir)
		require.NoError(t, err)
		assert.Equal(t, "Alpha", manager.GetDefault().Name)
	})

	t.Run("empty directory falls back to built-in defaults", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, engine.DefaultConfig(), manager.GetDefault())
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic.json", createValidConfig("Classic"))
	tall := createValidConfig("Tall")
	tall.Rows = 14
	writeConfigFile(t, dir, "tall.yaml", tall)
	writeConfigFile(t, dir, "short.yml", createValidConfig("Short"))

	manager, err := NewManager(dir)
	require.NoError(t, err)

	t.Run("load json config", func(t *testing.T) {
		config, err := manager.LoadConfig("classic")
		require.NoError(t, err)
		assert.Equal(t, "Classic", config.Name)
	})

	t.Run("load with extension", func(t *testing.T) {
		config, err := manager.LoadConfig("classic.json")
		require.NoError(t, err)
		assert.Equal(t, "Classic", config.Name)
	})

	t.Run("load yaml config", func(t *testing.T) {
		config, err := manager.LoadConfig("tall")
		require.NoError(t, err)
		assert.Equal(t, 14, config.Rows)

		config, err = manager.LoadConfig("short")
		require.NoError(t, err)
		assert.Equal(t, "Short", config.Name)
	})

	t.Run("load from cache", func(t *testing.T) {
		first, _ := manager.LoadConfig("classic")
		second, _ := manager.LoadConfig("classic")
		assert.Same(t, first, second)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := manager.LoadConfig("non-existent")
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("path traversal rejected", func(t *testing.T) {
		_, err := manager.LoadConfig("../secrets")
		assert.ErrorIs(t, err, ErrInvalidConfigName)
	})

	t.Run("load invalid config", func(t *testing.T) {
		invalid := createValidConfig("Invalid")
		invalid.MinTarget = 0
		writeConfigFile(t, dir, "invalid.json", invalid)

		_, err := manager.LoadConfig("invalid")
		assert.True(t, errors.Is(err, ErrInvalidConfig), "expected ErrInvalidConfig, got %v", err)
	})

	t.Run("load malformed JSON", func(t *testing.T) {
		writeRaw(t, dir, "malformed.json", "{ invalid json")
		_, err := manager.LoadConfig("malformed")
		assert.Error(t, err)
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic.json", createValidConfig("Classic"))
	writeConfigFile(t, dir, "rush.yaml", createValidConfig("Rush"))
	writeRaw(t, dir, "broken.json", "{")
	writeRaw(t, dir, "README.md", "# presets")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0755))

	manager, err := NewManager(dir)
	require.NoError(t, err)

	configs, err := manager.ListConfigs()
	require.NoError(t, err)
	require.Len(t, configs, 2, "invalid and non-preset files are skipped")

	assert.Equal(t, "classic", configs[0].ConfigID)
	assert.Equal(t, "classic.json", configs[0].Filename)
	assert.Equal(t, "Classic", configs[0].Name)
	assert.Equal(t, engine.DefaultCols, configs[0].Cols)
	assert.Equal(t, "rush", configs[1].ConfigID)
	assert.Equal(t, "rush.yaml", configs[1].Filename)
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	require.NoError(t, err)

	t.Run("json by default", func(t *testing.T) {
		require.NoError(t, manager.SaveConfig("wide", createValidConfig("Wide")))
		_, err := os.Stat(filepath.Join(dir, "wide.json"))
		require.NoError(t, err)

		manager.RefreshCache()
		config, err := manager.LoadConfig("wide")
		require.NoError(t, err)
		assert.Equal(t, "Wide", config.Name)
	})

	t.Run("yaml by extension", func(t *testing.T) {
		require.NoError(t, manager.SaveConfig("night.yaml", createValidConfig("Night")))
		data, err := os.ReadFile(filepath.Join(dir, "night.yaml"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "name: Night")

		manager.RefreshCache()
		config, err := manager.LoadConfig("night")
		require.NoError(t, err)
		assert.Equal(t, "Night", config.Name)
	})

	t.Run("invalid config rejected", func(t *testing.T) {
		invalid := createValidConfig("Bad")
		invalid.Cols = 0
		err := manager.SaveConfig("bad", invalid)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		_, statErr := os.Stat(filepath.Join(dir, "bad.json"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("invalid name rejected", func(t *testing.T) {
		err := manager.SaveConfig("../escape", createValidConfig("Escape"))
		assert.ErrorIs(t, err, ErrInvalidConfigName)
	})
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic.json", createValidConfig("Classic"))
	writeConfigFile(t, dir, "rush.yaml", createValidConfig("Rush"))

	manager, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, manager.SetDefault("rush"))
	assert.Equal(t, "Rush", manager.GetDefault().Name)
	assert.Error(t, manager.SetDefault("missing"))
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic.json", createValidConfig("Classic"))
	writeConfigFile(t, dir, "rush.yaml", createValidConfig("Rush"))

	manager, err := NewManager(dir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadConfig("rush"); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := manager.ListConfigs(); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent access error: %v", err)
	}
}

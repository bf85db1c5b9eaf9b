package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.Settings.HTTPTimeout)
	assert.Equal(t, 1, cfg.Settings.Jobs)
	assert.Empty(t, cfg.Settings.Contact)
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configContent := `settings:
  jobs: 8
  log_level: debug
  contact: mirror-ops@example.com`

	err := os.WriteFile(configPath, []byte(configContent), 0o644)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8, cfg.Settings.Jobs)
	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, "mirror-ops@example.com", cfg.Settings.Contact)
	// Unset fields pick up defaults.
	assert.Equal(t, 5*time.Minute, cfg.Settings.HTTPTimeout)
}

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigEmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader("settings: [not a mapping"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative jobs", "settings:\n  jobs: -2"},
		{"unknown log level", "settings:\n  log_level: verbose"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFromReader(strings.NewReader(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.Jobs = 4
	cfg.Settings.LogLevel = "warn"
	cfg.Settings.Contact = "ops@example.com"

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.SaveConfig(configPath))

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestUserAgent(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "cratesync/1.0", cfg.UserAgent("1.0"))

	cfg.Settings.Contact = "ops@example.com"
	assert.Equal(t, "cratesync/1.0 (ops@example.com)", cfg.UserAgent("1.0"))
}

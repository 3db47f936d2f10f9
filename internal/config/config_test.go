package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"DATA_DIR", "DB_PATH", "UPLOADS_DIR", "WHATSAPP_DATA_DIR", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(EnvPrefix+"_"+key, "")
		require.NoError(t, os.Unsetenv(EnvPrefix+"_"+key))
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, filepath.Join("data", "wedding.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join("data", "uploads"), cfg.UploadsDir)
	assert.Equal(t, filepath.Join("data", "whatsapp"), cfg.WhatsAppDataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, LogFormatConsole, cfg.LogFormat)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("REGISTRY_DATA_DIR", "/srv/wedding")
	t.Setenv("REGISTRY_DB_PATH", "/tmp/registry.db")
	t.Setenv("REGISTRY_UPLOADS_DIR", "")
	t.Setenv("REGISTRY_WHATSAPP_DATA_DIR", "")
	t.Setenv("REGISTRY_LOG_LEVEL", "debug")
	t.Setenv("REGISTRY_LOG_FORMAT", " JSON ")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/registry.db", cfg.DBPath)
	assert.Equal(t, filepath.Join("/srv/wedding", "uploads"), cfg.UploadsDir)
	assert.Equal(t, filepath.Join("/srv/wedding", "whatsapp"), cfg.WhatsAppDataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, LogFormatJSON, cfg.LogFormat)
}

func TestLoadConfigEmptyValuesFallBack(t *testing.T) {
	t.Setenv("REGISTRY_DATA_DIR", "")
	t.Setenv("REGISTRY_LOG_LEVEL", "")
	t.Setenv("REGISTRY_LOG_FORMAT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, LogFormatConsole, cfg.LogFormat)
}

func TestLoadConfigRejectsUnknownLogFormat(t *testing.T) {
	t.Setenv("REGISTRY_LOG_FORMAT", "xml")

	_, err := LoadConfig()
	assert.Error(t, err)
}

package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable, e.g. REGISTRY_DATA_DIR
const EnvPrefix = "REGISTRY"

const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Config holds the application configuration
type Config struct {
	DataDir string `envconfig:"DATA_DIR" default:"data"`

	// Derived from DataDir when empty
	DBPath          string `envconfig:"DB_PATH"`
	UploadsDir      string `envconfig:"UPLOADS_DIR"`
	WhatsAppDataDir string `envconfig:"WHATSAPP_DATA_DIR"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

// LoadConfig reads the configuration from REGISTRY_* environment variables
// and fills in the paths derived from the data directory.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolve() error {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "wedding.db")
	}
	if c.UploadsDir == "" {
		c.UploadsDir = filepath.Join(c.DataDir, "uploads")
	}
	if c.WhatsAppDataDir == "" {
		c.WhatsAppDataDir = filepath.Join(c.DataDir, "whatsapp")
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	switch c.LogFormat {
	case "":
		c.LogFormat = LogFormatConsole
	case LogFormatConsole, LogFormatJSON:
	default:
		return fmt.Errorf("unsupported LOG_FORMAT: %s", c.LogFormat)
	}
	return nil
}

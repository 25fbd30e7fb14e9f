// Package config defines the holocore process configuration and how it is
// loaded.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ayusman/holocore/internal/capture"
	"github.com/ayusman/holocore/internal/detector"
	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/source"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogDevelopment switches to the coloured console encoder.
	LogDevelopment bool `koanf:"log_development"`

	// Addr is the HTTP listen address. Empty disables the API server.
	Addr string `koanf:"addr"`

	// DataDir holds the database and the default plugin directory.
	DataDir string `koanf:"data_dir"`

	// DBPath overrides the database location inside DataDir.
	DBPath string `koanf:"db_path"`

	// Tray shows the system tray icon.
	Tray bool `koanf:"tray"`

	// AutoStart starts recognition as soon as the process is up.
	AutoStart bool `koanf:"auto_start"`

	Recognizer gesture.Config      `koanf:"recognizer"`
	Capture    capture.Config      `koanf:"capture"`
	Detector   detector.Config     `koanf:"detector"`
	Camera     source.CameraConfig `koanf:"camera"`
	Plugins    PluginConfig        `koanf:"plugins"`
}

// PluginConfig locates plugins and bounds their execution.
type PluginConfig struct {
	Dir       string        `koanf:"dir"`
	Timeout   time.Duration `koanf:"timeout"`
	QueueSize int           `koanf:"queue_size"`
}

// New returns a Config holding the defaults.
func New() *Config {
	dataDir := defaultDataDir()
	return &Config{
		LogLevel:   "info",
		Addr:       "127.0.0.1:8080",
		DataDir:    dataDir,
		Tray:       true,
		Recognizer: gesture.DefaultConfig(),
		Capture:    capture.DefaultConfig(),
		Detector:   detector.DefaultConfig(),
		Camera:     source.DefaultCameraConfig(),
		Plugins: PluginConfig{
			Timeout:   5 * time.Second,
			QueueSize: 32,
		},
	}
}

// Database returns the sqlite path, defaulting to DataDir/holocore.db.
func (c *Config) Database() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "holocore.db")
}

// PluginDir returns the plugin directory, defaulting to DataDir/plugins.
func (c *Config) PluginDir() string {
	if c.Plugins.Dir != "" {
		return c.Plugins.Dir
	}
	return filepath.Join(c.DataDir, "plugins")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".holocore"
	}
	return filepath.Join(home, ".holocore")
}

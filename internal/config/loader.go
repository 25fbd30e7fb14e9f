package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nesting levels: HOLOCORE_RECOGNIZER__MAX_HANDS=3.
const EnvPrefix = "HOLOCORE_"

// Load builds a Config by layering, from low to high precedence:
//  1. defaults (New)
//  2. the YAML file at path, or at $HOLOCORE_CONFIG when path is empty
//  3. environment variables with the HOLOCORE_ prefix
func Load(path string) (*Config, error) {
	cfg := New()
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps HOLOCORE_PLUGINS__QUEUE_SIZE to plugins.queue_size.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// Validate rejects settings the process cannot start with. Recognizer
// values are not checked here because the recognizer clamps them itself.
func (c *Config) Validate() error {
	if c.DataDir == "" && c.DBPath == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.Plugins.Timeout < 0 {
		return fmt.Errorf("%w: plugins.timeout must not be negative", ErrInvalidConfig)
	}
	if c.Plugins.QueueSize < 0 {
		return fmt.Errorf("%w: plugins.queue_size must not be negative", ErrInvalidConfig)
	}
	if c.Capture.Width < 0 || c.Capture.Height < 0 {
		return fmt.Errorf("%w: capture size must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Package config handles gridprobe configuration loading and management.
package config

import (
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/Faultbox/gridprobe/pkg/gridlookup"
)

// Config holds all gridprobe settings.
type Config struct {
	Scene   SceneConfig   `yaml:"scene"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// SceneConfig holds the terrain scene source and lookup settings.
type SceneConfig struct {
	Path          string  `yaml:"path"`           // X3D or X3DOM document
	VerticalScale float64 `yaml:"vertical_scale"` // used when the document has no Y scale
	BoundsPolicy  string  `yaml:"bounds_policy"`  // "reject" or "clamp"
}

// ServerConfig holds pick server settings.
type ServerConfig struct {
	Listen         string        `yaml:"listen"`
	MaxMessageSize int64         `yaml:"max_message_size"`
	WriteWait      time.Duration `yaml:"write_wait"`
	PongWait       time.Duration `yaml:"pong_wait"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Scene: SceneConfig{
			VerticalScale: 7.0,
			BoundsPolicy:  "reject",
		},
		Server: ServerConfig{
			Listen:         "127.0.0.1:8080",
			MaxMessageSize: 512,
			WriteWait:      10 * time.Second,
			PongWait:       60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Policy returns the parsed bounds policy.
func (c *Config) Policy() (gridlookup.BoundsPolicy, error) {
	return gridlookup.ParseBoundsPolicy(c.Scene.BoundsPolicy)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs error

	if !(c.Scene.VerticalScale > 0) {
		errs = multierr.Append(errs, fmt.Errorf("scene.vertical_scale must be positive, got %v", c.Scene.VerticalScale))
	}
	if _, err := c.Policy(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("scene.bounds_policy: %w", err))
	}
	if c.Server.Listen == "" {
		errs = multierr.Append(errs, fmt.Errorf("server.listen must not be empty"))
	}
	if c.Server.MaxMessageSize <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("server.max_message_size must be positive, got %d", c.Server.MaxMessageSize))
	}
	if c.Server.WriteWait <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("server.write_wait must be positive, got %v", c.Server.WriteWait))
	}
	if c.Server.PongWait <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("server.pong_wait must be positive, got %v", c.Server.PongWait))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = multierr.Append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	return errs
}

// Package config loads vecremote.yaml with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "vecremote.yaml"

// EnvPrefix prefixes every environment override, e.g. VECREMOTE_SERVER_PORT.
const EnvPrefix = "VECREMOTE"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config represents vecremote.yaml
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Client  ClientConfig  `yaml:"client"`
	Robot   RobotConfig   `yaml:"robot"`
	Frames  FramesConfig  `yaml:"frames"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host string `yaml:"host" envconfig:"HOST"`
	Port int    `yaml:"port" envconfig:"PORT"`

	// Directory holding app.wasm and wasm_exec.js
	StaticDir string `yaml:"staticDir" envconfig:"STATIC_DIR"`

	// RateLimit caps bridge posts per second; zero disables the limit
	RateLimit float64 `yaml:"rateLimit" envconfig:"RATE_LIMIT"`
	RateBurst int     `yaml:"rateBurst" envconfig:"RATE_BURST"`
}

// ClientConfig is rendered into the page for the WASM client
type ClientConfig struct {
	Interval time.Duration `yaml:"interval" envconfig:"INTERVAL"`
	LogLevel string        `yaml:"logLevel" envconfig:"LOG_LEVEL"`
}

// RobotConfig selects and configures the robot
type RobotConfig struct {
	// Serial of the robot; empty runs the simulator
	Serial string `yaml:"serial" envconfig:"SERIAL"`

	// Keymap maps control names (forward, lift_up, ...) to keys
	Keymap map[string]string `yaml:"keymap" envconfig:"KEYMAP"`
}

// FramesConfig controls the camera image endpoint
type FramesConfig struct {
	// Dir is watched for new frames; empty serves the placeholder only
	Dir      string `yaml:"dir" envconfig:"DIR"`
	Width    int    `yaml:"width" envconfig:"WIDTH"`
	Height   int    `yaml:"height" envconfig:"HEIGHT"`
	Gradient bool   `yaml:"gradient" envconfig:"GRADIENT"`
}

// LoggingConfig contains logger configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "localhost",
			Port:      5000,
			StaticDir: "dist",
			RateLimit: 100,
			RateBurst: 200,
		},
		Client: ClientConfig{
			Interval: 60 * time.Millisecond,
			LogLevel: "info",
		},
		Frames: FramesConfig{
			Width:  320,
			Height: 240,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path (DefaultFile when empty) over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalid, c.Server.Port)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("%w: server.rateLimit and server.rateBurst must not be negative", ErrInvalid)
	}
	if c.Client.Interval <= 0 {
		return fmt.Errorf("%w: client.interval must be positive", ErrInvalid)
	}
	if c.Frames.Width <= 0 || c.Frames.Height <= 0 {
		return fmt.Errorf("%w: frames.width and frames.height must be positive", ErrInvalid)
	}
	return nil
}

// Addr returns host:port for the HTTP listener.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

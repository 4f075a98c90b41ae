package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Capture CaptureConfig `yaml:"capture"`
	Lutris  LutrisConfig  `yaml:"lutris"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
	// Token guards the HTTP and WebSocket endpoints when set. Empty means
	// no auth, which is fine for the default localhost bind.
	Token string `yaml:"token"`
}

type CaptureConfig struct {
	// MaxLogLines bounds the in-memory log buffer kept per game.
	MaxLogLines int `yaml:"max_log_lines"`
	// TickInterval is how often buffered lines are batched out to
	// subscribers.
	TickInterval time.Duration `yaml:"tick_interval"`
	// ChannelCapacity bounds lines queued between the pipe reader and the
	// batcher before the reader blocks.
	ChannelCapacity int `yaml:"channel_capacity"`
}

type LutrisConfig struct {
	// Flavor selects the Lutris install to drive: "auto", "system" or
	// "flatpak".
	Flavor string `yaml:"flavor"`
	// Executable overrides the binary used for system installs.
	Executable string `yaml:"executable"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8090,
			Host: "127.0.0.1",
		},
		Capture: CaptureConfig{
			MaxLogLines:     5000,
			TickInterval:    100 * time.Millisecond,
			ChannelCapacity: 1000,
		},
		Lutris: LutrisConfig{
			Flavor:     "auto",
			Executable: "lutris",
		},
	}
}

// Load reads the YAML config at path. Fields absent from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields the defaults instead
// of an error. Any other failure is still reported.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	return cfg, err
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Capture.MaxLogLines <= 0 {
		return fmt.Errorf("capture.max_log_lines must be positive, got %d", c.Capture.MaxLogLines)
	}
	if c.Capture.TickInterval <= 0 {
		return fmt.Errorf("capture.tick_interval must be positive, got %s", c.Capture.TickInterval)
	}
	if c.Capture.ChannelCapacity <= 0 {
		return fmt.Errorf("capture.channel_capacity must be positive, got %d", c.Capture.ChannelCapacity)
	}
	switch c.Lutris.Flavor {
	case "auto", "system", "flatpak":
	default:
		return fmt.Errorf("unknown lutris flavor %q", c.Lutris.Flavor)
	}
	return nil
}

// GenerateToken produces a random hex token suitable for server.token.
func GenerateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

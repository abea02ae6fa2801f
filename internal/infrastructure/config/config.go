package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Target    TargetConfig    `toml:"target"`
	Logging   LogConfig       `toml:"logging"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Host     string `toml:"host" envconfig:"BRIDGE_HOST"`
	Port     int    `toml:"port" envconfig:"BRIDGE_PORT"`
	LockPath string `toml:"lock_path" envconfig:"BRIDGE_LOCK_PATH"`
}

// TargetConfig describes the desktop application the bridge controls.
type TargetConfig struct {
	// Path is the executable launched when no running instance is found.
	Path string `toml:"path" envconfig:"BRIDGE_TARGET_PATH"`
	// Name is reported by /status.
	Name string `toml:"name" envconfig:"BRIDGE_TARGET_NAME"`
	// ProcessName is matched against the OS process table. Derived from Path
	// when empty.
	ProcessName          string   `toml:"process_name" envconfig:"BRIDGE_PROCESS_NAME"`
	Args                 []string `toml:"args" envconfig:"BRIDGE_TARGET_ARGS"`
	ActionTimeoutSeconds int      `toml:"action_timeout_seconds" envconfig:"BRIDGE_ACTION_TIMEOUT_SECONDS"`
	Dedupe               bool     `toml:"dedupe" envconfig:"BRIDGE_DEDUPE"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `toml:"level" envconfig:"LOG_LEVEL"`
	Development bool   `toml:"development" envconfig:"LOG_DEV"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `toml:"requests_per_second" envconfig:"RATE_LIMIT_RPS"`
	Burst             int  `toml:"burst" envconfig:"RATE_LIMIT_BURST"`
	Enabled           bool `toml:"enabled" envconfig:"RATE_LIMIT_ENABLED"`
}

// MetricsConfig holds the optional prometheus listener configuration.
type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables the listener.
	Addr string `toml:"addr" envconfig:"METRICS_ADDR"`
}

// Load builds configuration from defaults, an optional TOML file and the
// environment, in that order of precedence (lowest first).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			Port:     8999,
			LockPath: filepath.Join(os.TempDir(), "aegis-bridge.lock"),
		},
		Target: TargetConfig{
			Path:                 DefaultTargetPath(runtime.GOOS),
			Name:                 "Bambu Lab P1S",
			ActionTimeoutSeconds: 10,
			Dedupe:               true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}

// DefaultTargetPath returns the stock Bambu Studio install location for goos.
func DefaultTargetPath(goos string) string {
	switch goos {
	case "windows":
		return `C:\Program Files\Bambu Studio\bambu-studio.exe`
	case "darwin":
		return "/Applications/BambuStudio.app"
	default:
		return "/usr/bin/bambu-studio"
	}
}

// Addr returns the host:port the bridge listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DialAddr returns the address a local client connects to. Wildcard hosts
// are replaced with loopback.
func (c *Config) DialAddr() string {
	host := c.Server.Host
	switch host {
	case "", "0.0.0.0", "::", "[::]":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Server.Port))
}

// ActionTimeout returns the per-trigger deadline.
func (c *Config) ActionTimeout() time.Duration {
	return time.Duration(c.Target.ActionTimeoutSeconds) * time.Second
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Target.Path) == "" {
		return errors.New("target path must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Server.Port)
	}
	if c.Target.ActionTimeoutSeconds <= 0 {
		return fmt.Errorf("action timeout must be positive, got %d", c.Target.ActionTimeoutSeconds)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("rate limit requires positive rps and burst")
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Target.Path = strings.TrimSpace(c.Target.Path)
	if c.Target.ProcessName == "" {
		c.Target.ProcessName = ProcessNameFromPath(c.Target.Path)
	}
}

// ProcessNameFromPath derives the process table name from an executable
// path: the base name without its extension. Windows paths are handled on
// every platform so configuration can be checked anywhere.
func ProcessNameFromPath(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment overrides. Levels are separated by
// a double underscore: SCHEDULER_CONSOLE_SCHEDULER__BASE_URL.
const EnvPrefix = "SCHEDULER_CONSOLE_"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Console   ConsoleConfig   `koanf:"console"`
	Log       LogConfig       `koanf:"log"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	BasePath     string        `koanf:"base_path"` // Optional base path for reverse proxy (e.g., "/scheduler")
}

// SchedulerConfig describes how the scheduler REST API is reached
type SchedulerConfig struct {
	BaseURL   string     `koanf:"base_url"`
	RateLimit float64    `koanf:"rate_limit"` // requests per second, 0 disables pacing
	Burst     int        `koanf:"burst"`
	UserAgent string     `koanf:"user_agent"`
	TLS       *TLSConfig `koanf:"tls"`
}

// ConsoleConfig holds the timings of the console state machines
type ConsoleConfig struct {
	PollInterval   time.Duration `koanf:"poll_interval"`
	PendingDelay   time.Duration `koanf:"pending_delay"`
	PendingMinShow time.Duration `koanf:"pending_min_show"`
	SessionTTL     time.Duration `koanf:"session_ttl"`
}

// LogConfig represents logger configuration
type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// TLSConfig represents TLS configuration for the scheduler client
type TLSConfig struct {
	CA   string `koanf:"ca"`
	Cert string `koanf:"cert"`
	Key  string `koanf:"key"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.addr":              ":8080",
		"server.read_timeout":      "15s",
		"server.write_timeout":     "15s",
		"server.base_path":         "",
		"scheduler.base_url":       "",
		"scheduler.rate_limit":     0,
		"scheduler.burst":          1,
		"scheduler.user_agent":     "scheduler-console",
		"console.poll_interval":    "10s",
		"console.pending_delay":    "400ms",
		"console.pending_min_show": "600ms",
		"console.session_ttl":      "30m",
		"log.level":                "info",
		"log.json":                 false,
	}
}

// Load builds the configuration from defaults, the optional file at
// configPath (YAML, or JSON for a .json extension), the environment and
// finally overrides, keyed like "scheduler.base_url"
func Load(configPath string, overrides ...map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	if configPath != "" {
		var parser koanf.Parser = yaml.Parser()
		if strings.EqualFold(filepath.Ext(configPath), ".json") {
			parser = json.Parser()
		}
		if err := k.Load(file.Provider(configPath), parser); err != nil {
			return nil, errors.Wrapf(err, "failed to load config %s", configPath)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment")
	}

	for _, o := range overrides {
		if err := k.Load(confmap.Provider(o, "."), nil); err != nil {
			return nil, errors.Wrap(err, "failed to apply overrides")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// envKey maps SCHEDULER_CONSOLE_CONSOLE__POLL_INTERVAL to console.poll_interval
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	if c.Scheduler.BaseURL == "" {
		return errors.New("scheduler.base_url is required")
	}
	if c.Scheduler.RateLimit < 0 {
		return errors.New("scheduler.rate_limit must not be negative")
	}
	if c.Scheduler.RateLimit > 0 && c.Scheduler.Burst <= 0 {
		return errors.New("scheduler.burst must be positive when rate_limit is set")
	}

	if tls := c.Scheduler.TLS; tls != nil && (tls.Cert == "") != (tls.Key == "") {
		return errors.New("scheduler.tls.cert and scheduler.tls.key must be set together")
	}

	if c.Console.PollInterval <= 0 {
		return errors.New("console.poll_interval must be positive")
	}
	if c.Console.PendingDelay < 0 {
		return errors.New("console.pending_delay must not be negative")
	}
	if c.Console.PendingMinShow < 0 {
		return errors.New("console.pending_min_show must not be negative")
	}
	if c.Console.SessionTTL <= 0 {
		return errors.New("console.session_ttl must be positive")
	}

	return nil
}

// Package config loads the service configuration from an optional YAML file
// with environment-variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/frontdesk-ai/frontdesk/internal/api"
	"github.com/frontdesk-ai/frontdesk/internal/events"
	"github.com/frontdesk-ai/frontdesk/internal/request"
	"github.com/frontdesk-ai/frontdesk/internal/sweeper"
)

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Driver is "sqlite", "postgres" or "memory".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// EventsConfig configures outbound event publishing.
type EventsConfig struct {
	// Enabled switches on Kafka publishing; when false, transitions are
	// logged instead.
	Enabled bool               `yaml:"enabled"`
	Kafka   events.KafkaConfig `yaml:"kafka"`
}

// AgentConfig configures the answer resolver.
type AgentConfig struct {
	EscalationMessage string `yaml:"escalation_message"`
}

// Config is the full application configuration.
type Config struct {
	Server  api.GatewayConfig `yaml:"server"`
	Store   StoreConfig       `yaml:"store"`
	Request request.Config    `yaml:"request"`
	Sweeper sweeper.Config    `yaml:"sweeper"`
	Events  EventsConfig      `yaml:"events"`
	Agent   AgentConfig       `yaml:"agent"`
}

// Default returns the configuration used when no file and no environment
// overrides are present: an embedded sqlite store, a one-minute sweep, log
// notifications.
func Default() Config {
	return Config{
		Server: api.DefaultGatewayConfig(),
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "file:frontdesk.db?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)",
		},
		Request: request.Config{
			TimeoutMinutes:    request.DefaultTimeoutMinutes,
			DefaultCustomerID: "ui-caller",
		},
		Sweeper: sweeper.Config{Interval: sweeper.DefaultInterval},
	}
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sweeper.Interval = d
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Events.Enabled = true
		cfg.Events.Kafka.Brokers = strings.Split(v, ",")
	}
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server config error: invalid port %d", c.Server.Port)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store config error: dsn is required for driver %q", c.Store.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("store config error: unknown driver %q", c.Store.Driver)
	}

	if c.Request.TimeoutMinutes < 0 {
		return fmt.Errorf("request config error: timeout_minutes must not be negative")
	}
	if c.Sweeper.Interval < 0 {
		return fmt.Errorf("sweeper config error: interval must not be negative")
	}

	if c.Events.Enabled {
		if len(c.Events.Kafka.Brokers) == 0 {
			return fmt.Errorf("events config error: brokers are required when enabled")
		}
		for _, broker := range c.Events.Kafka.Brokers {
			if !strings.Contains(broker, ":") {
				return fmt.Errorf("events config error: invalid broker %q (expected host:port)", broker)
			}
		}
	}
	return nil
}

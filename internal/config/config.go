package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the simulation host's runtime configuration.
type Config struct {
	HostID          string        `yaml:"host_id"`
	TickRate        float64       `yaml:"tick_rate"` // ticks per second
	MQTTBroker      string        `yaml:"mqtt_broker"`
	DBPath          string        `yaml:"db_path"`
	HTTPAddr        string        `yaml:"http_addr"`
	TreesDir        string        `yaml:"trees_dir"`
	RecordDecisions bool          `yaml:"record_decisions"`
	Actors          []ActorConfig `yaml:"actors"`
	Remote          *RemoteConfig `yaml:"remote,omitempty"`
}

// ActorConfig declares an actor spawned at startup.
type ActorConfig struct {
	ID         string         `yaml:"id"`
	Tree       string         `yaml:"tree"`
	Blackboard map[string]any `yaml:"blackboard,omitempty"`
}

// RemoteConfig points at a host serving tree descriptions over SFTP.
type RemoteConfig struct {
	Addr     string `yaml:"addr"`
	User     string `yaml:"user"`
	KeyPath  string `yaml:"key_path"`
	Password string `yaml:"password"`
	Dir      string `yaml:"dir"`
}

const (
	DefaultTickRate = 10
	DefaultHTTPAddr = ":8080"
)

// Load reads and parses a YAML config file, then applies environment
// overrides and defaults.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("config file %s not found", path)
		}
		return cfg, err
	}
	cfg, err = Parse(data)
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes a config document.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
}

func (c *Config) applyDefaults() {
	if c.TickRate == 0 {
		c.TickRate = DefaultTickRate
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = DefaultHTTPAddr
	}
	if c.HostID == "" {
		if name, err := os.Hostname(); err == nil {
			c.HostID = name
		}
	}
}

// Validate ensures required fields are populated.
func (c Config) Validate() error {
	if c.TickRate < 0 {
		return errors.New("tick_rate must be positive")
	}
	seen := make(map[string]bool, len(c.Actors))
	for i, a := range c.Actors {
		if strings.TrimSpace(a.Tree) == "" {
			return fmt.Errorf("actors[%d]: tree is required", i)
		}
		if a.ID != "" {
			if seen[a.ID] {
				return fmt.Errorf("actors[%d]: duplicate id %q", i, a.ID)
			}
			seen[a.ID] = true
		}
	}
	if c.Remote != nil {
		if c.Remote.Addr == "" || c.Remote.User == "" {
			return errors.New("remote: addr and user required")
		}
	}
	return nil
}

// TickInterval is the wall-clock time between ticks.
func (c Config) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}

package borrowecs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable read by ConfigFromEnv.
const EnvPrefix = "BORROWECS_"

// ErrInvalidConfig is wrapped by every configuration validation error.
var ErrInvalidConfig = errors.New("ecs: invalid config")

// RemovalPolicy decides what World.RemoveEntity does with an entity that
// still has live borrows.
type RemovalPolicy string

const (
	// RemovalPanic treats the removal as a contract violation.
	RemovalPanic RemovalPolicy = "panic"
	// RemovalDefer queues the removal until the next Flush after the
	// borrows are gone.
	RemovalDefer RemovalPolicy = "defer"
)

// Config holds the tunables of a World.
type Config struct {
	InitialCapacity int           `env:"INITIAL_CAPACITY" envDefault:"1024" yaml:"initial_capacity" toml:"initial_capacity"`
	RemovalPolicy   RemovalPolicy `env:"REMOVAL_POLICY" envDefault:"panic" yaml:"removal_policy" toml:"removal_policy"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"disabled" yaml:"log_level" toml:"log_level"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console" yaml:"log_format" toml:"log_format"`
}

// DefaultConfig returns the configuration used by NewWorld.
func DefaultConfig() Config {
	return Config{
		InitialCapacity: 1024,
		RemovalPolicy:   RemovalPanic,
		LogLevel:        "disabled",
		LogFormat:       "console",
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.InitialCapacity < 0 {
		return fmt.Errorf("%w: initial capacity %d is negative", ErrInvalidConfig, c.InitialCapacity)
	}
	switch c.RemovalPolicy {
	case RemovalPanic, RemovalDefer:
	default:
		return fmt.Errorf("%w: unknown removal policy %q", ErrInvalidConfig, c.RemovalPolicy)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("%w: log level %q: %v", ErrInvalidConfig, c.LogLevel, err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// ConfigFromEnv reads the configuration from BORROWECS_* environment
// variables, falling back to the defaults.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML (.yaml, .yml) or TOML (.toml) file. Settings
// missing from the file keep their defaults, and a missing file yields the
// defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("%w: unsupported config extension %q", ErrInvalidConfig, ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

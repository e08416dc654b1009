// Package config loads and validates the mongol configuration.
//
// Configuration comes from a YAML file. Values may reference environment
// variables with ${VAR} or ${VAR:-default}; a .env file is loaded by the
// command before the file is read.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/albert-team/mongol/core"
	"github.com/albert-team/mongol/hooks"
	"github.com/albert-team/mongol/internal/logging"
)

// Config is the root configuration.
type Config struct {
	Mongo      MongoConfig      `yaml:"mongo"`      // Connection settings
	Schema     SchemaConfig     `yaml:"schema"`     // Schema keyword stripping
	Timestamps TimestampsConfig `yaml:"timestamps"` // Timestamp hook naming
	Logging    logging.Config   `yaml:"logging"`    // Log level, format, output
}

// MongoConfig contains connection settings.
type MongoConfig struct {
	URI                    string        `yaml:"uri"`
	Database               string        `yaml:"database"`
	ConnectTimeout         time.Duration `yaml:"connect_timeout"`
	ServerSelectionTimeout time.Duration `yaml:"server_selection_timeout"`
}

// SchemaConfig controls which JSON Schema keywords are stripped.
type SchemaConfig struct {
	// IgnoreUnsupportedKeywords defaults to true when omitted.
	IgnoreUnsupportedKeywords *bool `yaml:"ignore_unsupported_keywords"`
	IgnoreType                bool  `yaml:"ignore_type"`
}

// Options converts the section into core.SchemaOptions.
func (s SchemaConfig) Options() core.SchemaOptions {
	opts := core.DefaultSchemaOptions()
	if s.IgnoreUnsupportedKeywords != nil {
		opts.IgnoreUnsupportedKeywords = *s.IgnoreUnsupportedKeywords
	}
	opts.IgnoreType = s.IgnoreType
	return opts
}

// TimestampsConfig selects the naming convention of the timestamp hook.
type TimestampsConfig struct {
	Naming string `yaml:"naming"` // camelCase (default) or snake_case
}

// Options converts the section into hooks.TimestampOptions.
func (t TimestampsConfig) Options() (hooks.TimestampOptions, error) {
	naming, err := hooks.ParseNamingConvention(t.Naming)
	if err != nil {
		return hooks.TimestampOptions{}, err
	}
	return hooks.TimestampOptions{Naming: naming}, nil
}

var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// ExpandEnvWithDefaults expands ${VAR} and ${VAR:-default}.
func ExpandEnvWithDefaults(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) > 2 {
			return parts[2]
		}
		return ""
	})
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := ExpandEnvWithDefaults(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks required fields and enumerated values.
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo.database is required")
	}
	if c.Mongo.ConnectTimeout < 0 || c.Mongo.ServerSelectionTimeout < 0 {
		return fmt.Errorf("mongo timeouts must not be negative")
	}
	if _, err := c.Timestamps.Options(); err != nil {
		return fmt.Errorf("timestamps.naming: %w", err)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

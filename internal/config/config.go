// SPDX-FileCopyrightText: The go-mail Authors
//
// SPDX-License-Identifier: MIT

// Package config loads the configuration of the mailer command line tool: defaults,
// then an optional YAML file, then MAILER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults
const (
	DefaultPort      = 587
	DefaultTimeout   = 15 * time.Second
	DefaultAuth      = "auto"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the complete configuration of the command line tool.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the mail submission endpoint.
type ServerConfig struct {
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
	HELO     string        `yaml:"helo"`
	Auth     string        `yaml:"auth"`

	// CAFile is an optional PEM bundle that replaces the system roots for STARTTLS
	CAFile string `yaml:"ca_file"`
}

// HistoryConfig holds the delivery history settings.
type HistoryConfig struct {
	Record bool `yaml:"record"`
}

// LoggingConfig holds the logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Debug  bool   `yaml:"debug"`
}

// Load returns the defaults overridden by the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads the YAML file at path on top of the defaults and overrides the
// result with the environment.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err = cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AuthEnabled returns true if both username and password are set.
func (c *Config) AuthEnabled() bool {
	return c.Server.Username != "" && c.Server.Password != ""
}

// Validate checks the settings that have no usable default
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("%w: server host is required", ErrInvalidConfig)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

func (c *Config) applyDefaults() {
	c.Server.Port = DefaultPort
	c.Server.Timeout = DefaultTimeout
	c.Server.Auth = DefaultAuth
	c.Logging.Level = DefaultLogLevel
	c.Logging.Format = DefaultLogFormat
}

// applyEnvVars overrides the configuration with all non-empty MAILER_* variables
func (c *Config) applyEnvVars() error {
	if v := os.Getenv("MAILER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("MAILER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: MAILER_PORT: %w", ErrInvalidConfig, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("MAILER_USERNAME"); v != "" {
		c.Server.Username = v
	}
	if v := os.Getenv("MAILER_PASSWORD"); v != "" {
		c.Server.Password = v
	}
	if v := os.Getenv("MAILER_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: MAILER_TIMEOUT: %w", ErrInvalidConfig, err)
		}
		c.Server.Timeout = timeout
	}
	if v := os.Getenv("MAILER_HELO"); v != "" {
		c.Server.HELO = v
	}
	if v := os.Getenv("MAILER_AUTH"); v != "" {
		c.Server.Auth = v
	}
	if v := os.Getenv("MAILER_CA_FILE"); v != "" {
		c.Server.CAFile = v
	}
	if v := os.Getenv("MAILER_RECORD_HISTORY"); v != "" {
		record, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: MAILER_RECORD_HISTORY: %w", ErrInvalidConfig, err)
		}
		c.History.Record = record
	}
	if v := os.Getenv("MAILER_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("MAILER_LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	return nil
}

// Package config loads the evaluation dashboard configuration from YAML
// with environment-variable expansion and overrides.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP dashboard surface.
type ServerConfig struct {
	Host     string `yaml:"host"`
	HTTPPort int    `yaml:"http_port"`
}

// StoreConfig configures the evaluation record store. Leaving both the
// static credentials and the endpoint override empty is the valid
// "not configured" state: the service runs without a store and downgrades
// record writes to skips.
type StoreConfig struct {
	TableName       string `yaml:"table_name"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Configured reports whether the store can be reached: static credentials
// or a local endpoint override.
func (c *StoreConfig) Configured() bool {
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		return true
	}
	return c.Endpoint != ""
}

// UpstreamConfig configures the agent-invocation endpoint.
type UpstreamConfig struct {
	URL          string        `yaml:"url"`
	APIKey       string        `yaml:"api_key"`
	APIKeyHeader string        `yaml:"api_key_header"`
	Timeout      time.Duration `yaml:"timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "127.0.0.1",
			HTTPPort: 8080,
		},
		Store: StoreConfig{
			TableName: "LLMAgentEvaluation",
			Region:    "us-east-1",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Server.HTTPPort < 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d out of range", c.Server.HTTPPort)
	}
	if c.Upstream.Timeout < 0 {
		return fmt.Errorf("upstream.timeout must not be negative")
	}
	if (c.Store.AccessKeyID == "") != (c.Store.SecretAccessKey == "") {
		return fmt.Errorf("store credentials require both access_key_id and secret_access_key")
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the configuration file at path, expands ${VAR} references,
// applies defaults and environment overrides, and validates the result.
// A missing file is not an error: the defaults plus environment overrides
// are returned instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// fall through to env overrides
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if cfg.Store.TableName == "" {
		cfg.Store.TableName = Default().Store.TableName
	}
	if cfg.Store.Region == "" {
		cfg.Store.Region = Default().Store.Region
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		cfg.Store.AccessKeyID = v
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		cfg.Store.SecretAccessKey = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Store.Region = v
	} else if v := os.Getenv("AWS_DEFAULT_REGION"); v != "" {
		cfg.Store.Region = v
	}
	if v := os.Getenv("DYNAMO_ENDPOINT"); v != "" {
		cfg.Store.Endpoint = v
	}
	if v := os.Getenv("EVAL_TABLE_NAME"); v != "" {
		cfg.Store.TableName = v
	}
	if v := os.Getenv("EVAL_UPSTREAM_URL"); v != "" {
		cfg.Upstream.URL = v
	}
	if v := os.Getenv("EVAL_API_KEY"); v != "" {
		cfg.Upstream.APIKey = v
	}
}

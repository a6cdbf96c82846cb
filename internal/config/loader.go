package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a configuration from environment variables only, for
// deployments without a config file. STEAMAPIS_KEY is the only required
// variable.
func FromEnv() *Config {
	cfg := &Config{}
	cfg.Server.ListenAddr = envOr("LISTEN_ADDR", "")
	cfg.Redis.Addr = envOr("REDIS_URL", "")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.SteamApis.APIKey = os.Getenv("STEAMAPIS_KEY")
	cfg.SteamApis.BaseURL = envOr("STEAMAPIS_BASE_URL", "")
	cfg.Log.Level = envOr("LOG_LEVEL", "")
	cfg.applyDefaults()
	return cfg
}

// LoadAndValidate loads config from a file, applies defaults, and
// validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.SteamApis.APIKey == "" {
		return fmt.Errorf("steamapis api_key is required")
	}
	if c.SteamApis.MaxRetries > 10 {
		return fmt.Errorf("steamapis max_retries must be <= 10 (got %d)", c.SteamApis.MaxRetries)
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

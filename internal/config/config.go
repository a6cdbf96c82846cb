package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use the "10s"/"24h"
// form; yaml.v3 has no native duration support.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration for the price server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	SteamApis SteamApisConfig `yaml:"steamapis"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr      string   `yaml:"listen_addr"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// RedisConfig holds the cache backend connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SteamApisConfig holds upstream API settings.
type SteamApisConfig struct {
	BaseURL         string   `yaml:"base_url"`
	APIKey          string   `yaml:"api_key"` // supports ${STEAMAPIS_KEY} expansion
	ConnectTimeout  Duration `yaml:"connect_timeout"`
	ResponseTimeout Duration `yaml:"response_timeout"`
	MaxRetries      int      `yaml:"max_retries"`
	InitialBackoff  Duration `yaml:"initial_backoff"`
}

// CacheConfig holds price cache settings.
type CacheConfig struct {
	TTL Duration `yaml:"ttl"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// applyDefaults fills unset fields with safe defaults.
func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.SteamApis.BaseURL == "" {
		c.SteamApis.BaseURL = "https://api.steamapis.com"
	}
	if c.SteamApis.ConnectTimeout <= 0 {
		c.SteamApis.ConnectTimeout = Duration(5 * time.Second)
	}
	if c.SteamApis.ResponseTimeout <= 0 {
		c.SteamApis.ResponseTimeout = Duration(15 * time.Second)
	}
	if c.SteamApis.MaxRetries <= 0 {
		c.SteamApis.MaxRetries = 3
	}
	if c.SteamApis.InitialBackoff <= 0 {
		c.SteamApis.InitialBackoff = Duration(1 * time.Second)
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = Duration(24 * time.Hour)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

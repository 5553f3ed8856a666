package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the tracker's configuration. Values come from an optional
// YAML file (CONFIG_PATH) overridden by environment variables.
type Config struct {
	Authority struct {
		BaseURL string `yaml:"base_url"`
		Timeout time.Duration
		// TimeoutSeconds is the YAML-facing form of Timeout.
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"authority"`

	Sensor struct {
		Endpoint string `yaml:"endpoint"`
		Timeout  time.Duration
		// TimeoutSeconds is the YAML-facing form of Timeout.
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"sensor"`

	Store struct {
		// Backend selects the snapshot store: mysql, redis, or memory.
		Backend  string `yaml:"backend"`
		MySQLDSN string `yaml:"mysql_dsn"`
		RedisURL string `yaml:"redis_url"`
	} `yaml:"store"`

	Server struct {
		Addr        string `yaml:"addr"`
		CORSOrigins string `yaml:"cors_origins"`
	} `yaml:"server"`
}

// Load reads configuration from CONFIG_PATH (if set) and the environment.
// Environment variables win.
func Load() (Config, error) {
	var cfg Config
	cfg.Authority.TimeoutSeconds = 30
	cfg.Sensor.TimeoutSeconds = 8
	cfg.Store.Backend = "memory"
	cfg.Server.Addr = ":8090"
	cfg.Server.CORSOrigins = "*"

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.Authority.BaseURL = envStr("AUTHORITY_BASE_URL", cfg.Authority.BaseURL)
	cfg.Authority.Timeout = time.Duration(envInt("AUTHORITY_TIMEOUT_SECONDS", cfg.Authority.TimeoutSeconds)) * time.Second
	cfg.Sensor.Endpoint = envStr("SENSOR_ENDPOINT", cfg.Sensor.Endpoint)
	cfg.Sensor.Timeout = time.Duration(envInt("SENSOR_TIMEOUT_SECONDS", cfg.Sensor.TimeoutSeconds)) * time.Second
	cfg.Store.Backend = envStr("STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.MySQLDSN = envStr("MYSQL_DSN", cfg.Store.MySQLDSN)
	cfg.Store.RedisURL = envStr("REDIS_URL", cfg.Store.RedisURL)
	cfg.Server.Addr = envStr("SERVER_ADDR", cfg.Server.Addr)
	cfg.Server.CORSOrigins = envStr("CORS_ALLOWED_ORIGINS", cfg.Server.CORSOrigins)

	if cfg.Authority.BaseURL == "" {
		return cfg, errors.New("AUTHORITY_BASE_URL is required")
	}
	switch cfg.Store.Backend {
	case "memory":
	case "mysql":
		if cfg.Store.MySQLDSN == "" {
			return cfg, errors.New("MYSQL_DSN is required for the mysql store backend")
		}
	case "redis":
		if cfg.Store.RedisURL == "" {
			return cfg, errors.New("REDIS_URL is required for the redis store backend")
		}
	default:
		return cfg, errors.New("STORE_BACKEND must be one of: mysql, redis, memory")
	}

	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

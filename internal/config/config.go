package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`

	// postgres
	DatabaseURI   string `toml:"database_uri"`
	RunMigrations bool   `toml:"run_migrations"`

	// redis, used for rate limiting credential routes; empty host disables it
	RedisHost           string `toml:"redis_host"`
	RedisPort           string `toml:"redis_port"`
	AuthRateLimitPerMin int    `toml:"auth_rate_limit_per_min"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	AllowedOrigins []string `toml:"allowed_origins"`
}

type Toml struct {
	Development *Config
	Production  *Config
	Dockerdev   *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	case "ddev", "dockerdev":
		cfg = t.Dockerdev
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}

	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the section for env from the TOML file at path, then applies
// DATABASE_URI, PORT and LOG_LEVEL from the environment on top of it.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode toml config %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if uri := getenv("DATABASE_URI"); uri != "" {
		c.DatabaseURI = uri
	}
	if port := getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT [%s]: %w", port, err)
		}
		c.Port = p
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
	return nil
}

func (c *Config) Validate() error {
	if c.DatabaseURI == "" {
		return errors.New("database uri not set, use database_uri or DATABASE_URI")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.RedisHost != "" && c.AuthRateLimitPerMin <= 0 {
		return fmt.Errorf("invalid auth rate limit: %d, must be positive when redis is set", c.AuthRateLimitPerMin)
	}
	return nil
}

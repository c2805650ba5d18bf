package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port" env:"PORT"`
	} `yaml:"server" envPrefix:"SERVER_"`
	Log struct {
		Level  string `yaml:"level" env:"LEVEL"`
		Format string `yaml:"format" env:"FORMAT"` // json or console
	} `yaml:"log" envPrefix:"LOG_"`
	Redis struct {
		Addr     string `yaml:"addr" env:"ADDR"`
		Password string `yaml:"password" env:"PASSWORD"`
		DB       int    `yaml:"db" env:"DB"`
		TTL      string `yaml:"ttl" env:"TTL"`
	} `yaml:"redis" envPrefix:"REDIS_"`
	Postgres struct {
		URL string `yaml:"url" env:"URL"`
	} `yaml:"postgres" envPrefix:"POSTGRES_"`
	Catalog struct {
		TTL string `yaml:"ttl" env:"TTL"`
	} `yaml:"catalog" envPrefix:"CATALOG_"`
	Transition struct {
		Enabled              *bool  `yaml:"enabled" env:"ENABLED"`
		MinDelay             string `yaml:"min_delay" env:"MIN_DELAY"`
		MaxDelay             string `yaml:"max_delay" env:"MAX_DELAY"`
		CreatorInterval      string `yaml:"creator_interval" env:"CREATOR_INTERVAL"`
		EntrepreneurInterval string `yaml:"entrepreneur_interval" env:"ENTREPRENEUR_INTERVAL"`
	} `yaml:"transition" envPrefix:"TRANSITION_"`
}

// EnvPrefix namespaces every environment override, e.g. ONBOARDING_REDIS_ADDR.
const EnvPrefix = "ONBOARDING_"

// Load reads YAML config from path, then applies ONBOARDING_* environment
// overrides. A missing file is not an error; defaults and env still apply.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// TransitionEnabled defaults to true when unset.
func (c Config) TransitionEnabled() bool {
	return c.Transition.Enabled == nil || *c.Transition.Enabled
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

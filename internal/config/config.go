// Package config loads service settings from HYDRO_-prefixed environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix is prepended to every variable name, so DATASET_SOURCE is read
// from HYDRO_DATASET_SOURCE.
const envPrefix = "HYDRO"

// Config holds all service settings, populated from environment variables.
type Config struct {
	// DatasetSource is a local CSV path or an http(s) URL. The default is
	// the published GloHydroRes dataset the dashboard is built around.
	DatasetSource string        `envconfig:"DATASET_SOURCE" default:"https://raw.githubusercontent.com/wailywang/info301-dash-dashboard/refs/heads/main/GloHydroRes_vs1.csv"`
	FetchTimeout  time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`

	// CacheTTL bounds how long a cached table stays fresh; zero keeps it
	// until an explicit refresh. RefreshInterval drives the background
	// reload loop; zero loads once at startup and then only on demand.
	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"0"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"6h"`

	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Kafka publishing of cleaned records is off unless explicitly enabled.
	KafkaEnabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"hydro-plant-records"`
}

// Load reads configuration from environment variables, applying defaults
// where unset, and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	cfg.KafkaBrokers = normalizeBrokers(cfg.KafkaBrokers)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DatasetSource) == "" {
		return errors.New("HYDRO_DATASET_SOURCE is required")
	}
	if c.FetchTimeout <= 0 {
		return errors.New("HYDRO_FETCH_TIMEOUT must be positive")
	}
	if c.CacheTTL < 0 {
		return errors.New("HYDRO_CACHE_TTL must not be negative")
	}
	if c.RefreshInterval < 0 {
		return errors.New("HYDRO_REFRESH_INTERVAL must not be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("HYDRO_SHUTDOWN_TIMEOUT must be positive")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("HYDRO_LOG_LEVEL must be one of debug, info, warn, error")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return errors.New("HYDRO_LOG_FORMAT must be json or text")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("HYDRO_KAFKA_BROKERS is required when HYDRO_KAFKA_ENABLED is true")
		}
		if strings.TrimSpace(c.KafkaTopic) == "" {
			return errors.New("HYDRO_KAFKA_TOPIC is required when HYDRO_KAFKA_ENABLED is true")
		}
	}
	return nil
}

// normalizeBrokers trims whitespace and drops empty entries left over from
// comma splitting.
func normalizeBrokers(brokers []string) []string {
	out := make([]string, 0, len(brokers))
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

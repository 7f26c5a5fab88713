package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MarketConfig selects one market's rule regime and exclusion conventions.
type MarketConfig struct {
	ID string `yaml:"id" validate:"required"`
	// RawTable pins the raw source table; empty means auto-detect
	// (daily_prices preferred, else first non-output table).
	RawTable string `yaml:"raw_table"`
	// ETFPrefixes lists symbol prefixes excluded from limit qualification.
	ETFPrefixes []string `yaml:"etf_prefixes"`
	// ExcludeMissingSector also excludes symbols with no sector join.
	ExcludeMissingSector bool `yaml:"exclude_missing_sector"`
}

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`

	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`

	Server struct {
		Enabled         bool          `yaml:"enabled" default:"true"`
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost" validate:"required"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"refinery" validate:"required"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"60s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"60s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"5m"`
	} `yaml:"clickhouse"`

	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"refinery.summaries"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`

	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Addr     string        `yaml:"addr" default:"localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl" default:"1h"`
	} `yaml:"redis"`

	Refinery struct {
		// Markets are refined sequentially, in order, one full history each.
		Markets       []MarketConfig `yaml:"markets" validate:"min=1,dive"`
		RefineOnStart bool           `yaml:"refine_on_start" default:"true"`
	} `yaml:"refinery"`
}

// Load reads, defaults, parses and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validator.New().Struct(&c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables, for containerized deployments.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("MARKETS"); v != "" {
		// narrow the configured market set without editing the file
		keep := map[string]bool{}
		for _, id := range strings.Split(v, ",") {
			keep[strings.ToUpper(strings.TrimSpace(id))] = true
		}
		filtered := c.Refinery.Markets[:0]
		for _, m := range c.Refinery.Markets {
			if keep[strings.ToUpper(m.ID)] {
				filtered = append(filtered, m)
			}
		}
		c.Refinery.Markets = filtered
	}

	return c, nil
}

// Market returns the configuration for a market id, case-insensitive.
func (c *Config) Market(id string) (MarketConfig, bool) {
	for _, m := range c.Refinery.Markets {
		if strings.EqualFold(m.ID, id) {
			return m, true
		}
	}
	return MarketConfig{}, false
}

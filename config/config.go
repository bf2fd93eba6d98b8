package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/wirekit/logger"
)

// Config is the engine's top-level configuration.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`

	Logging  logger.Config  `yaml:"logging" mapstructure:"logging"`
	Executor ExecutorConfig `yaml:"executor" mapstructure:"executor"`
	Tracing  TracingConfig  `yaml:"tracing" mapstructure:"tracing"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// ExecutorConfig configures plan execution.
type ExecutorConfig struct {
	// MaxParallel bounds concurrent constructions per stage (0 = unlimited).
	MaxParallel int `yaml:"max_parallel" mapstructure:"max_parallel" validate:"gte=0"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// MetricsConfig configures the OTLP metric exporter.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults applies default values to the configuration.
func (c *Config) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Logging.ApplyDefaults()
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
	if c.Metrics.Endpoint == "" {
		c.Metrics.Endpoint = "localhost:4318"
	}
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = 15 * time.Second
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return c.Logging.Validate()
}

var validate = validator.New()

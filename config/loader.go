package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// LoaderOption is a functional option for Load.
type LoaderOption func(*loaderConfig)

type loaderConfig struct {
	configFile string
	envFile    string
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.configFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *loaderConfig) { lc.envFile = path }
}

// Load reads configuration for the named service. It merges, in order of
// increasing precedence, a YAML config file, a .env file, and process
// environment variables prefixed with the upper-cased service name
// (WIREKIT_LOGGING_LEVEL maps to logging.level). Defaults are applied and
// the result validated.
func Load(serviceName string, opts ...LoaderOption) (*Config, error) {
	var lc loaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	if lc.envFile == "" {
		lc.envFile = findFile(".env", "./config/.env")
	}
	if lc.envFile != "" {
		if err := godotenv.Load(lc.envFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", lc.envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(serviceName)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if lc.configFile == "" {
		lc.configFile = findFile("./config.yml", "./config/config.yml")
	}
	if lc.configFile != "" {
		v.SetConfigFile(lc.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", lc.configFile, err)
		}
	}

	cfg := &Config{Name: serviceName}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config for %s: %w", serviceName, err)
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findFile(candidates ...string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

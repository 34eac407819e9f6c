package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the service reads,
// e.g. ACCOUNT_SERVER_PORT for server.port.
const EnvPrefix = "ACCOUNT"

var defaults = map[string]any{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.shutdown_timeout":         "10s",
	"database.driver":                 "memory",
	"database.url":                    "",
	"database.max_open_conns":         10,
	"lock.driver":                     "local",
	"lock.redis_url":                  "",
	"lock.expiry":                     "15s",
	"lock.tries":                      10,
	"lock.retry_delay":                "100ms",
	"lock.wait_timeout":               "1s",
	"events.driver":                   "none",
	"events.rabbitmq_url":             "",
	"events.exchange":                 "account.events",
	"events.kafka_brokers":            []string{},
	"events.kafka_topic":              "account.transactions",
	"transaction.cancel_window":       "8760h",
	"transaction.max_balance_retries": 3,
}

// Load configuration from environment variables and optionally a .env file
// and a config.yaml in the working directory.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom works like Load but looks for .env and config.yaml in dir.
func LoadFrom(dir string) (*Config, error) {
	if err := godotenv.Load(dir + "/.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key := range defaults {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

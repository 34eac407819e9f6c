package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Lock        LockConfig        `mapstructure:"lock" validate:"required"`
	Events      EventsConfig      `mapstructure:"events" validate:"required"`
	Transaction TransactionConfig `mapstructure:"transaction" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig selects the storage backend.
// The memory driver keeps all state in process and needs no URL.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=memory postgres"`
	URL          string `mapstructure:"url" validate:"required_if=Driver postgres"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
}

// LockConfig selects how balance operations on one account are serialized.
type LockConfig struct {
	Driver   string `mapstructure:"driver" validate:"required,oneof=local redis"`
	RedisURL string `mapstructure:"redis_url" validate:"required_if=Driver redis"`
	// Expiry bounds how long a redis lock is held if its owner dies.
	Expiry     time.Duration `mapstructure:"expiry" validate:"gt=0"`
	Tries      int           `mapstructure:"tries" validate:"gt=0"`
	RetryDelay time.Duration `mapstructure:"retry_delay" validate:"gte=0"`
	// WaitTimeout bounds how long the local locker waits for an account.
	WaitTimeout time.Duration `mapstructure:"wait_timeout" validate:"gt=0"`
}

// EventsConfig selects where TransactionRecorded events are published.
type EventsConfig struct {
	Driver       string   `mapstructure:"driver" validate:"required,oneof=none rabbitmq kafka"`
	RabbitMQURL  string   `mapstructure:"rabbitmq_url" validate:"required_if=Driver rabbitmq"`
	Exchange     string   `mapstructure:"exchange" validate:"required"`
	KafkaBrokers []string `mapstructure:"kafka_brokers" validate:"required_if=Driver kafka"`
	KafkaTopic   string   `mapstructure:"kafka_topic" validate:"required"`
}

// TransactionConfig contains the balance operation rules that are tunable.
type TransactionConfig struct {
	CancelWindow      time.Duration `mapstructure:"cancel_window" validate:"gt=0"`
	MaxBalanceRetries int           `mapstructure:"max_balance_retries" validate:"gt=0"`
}

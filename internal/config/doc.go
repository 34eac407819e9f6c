// Package config handles configuration loading, parsing, and validation
// from environment variables, an optional .env file and an optional
// config.yaml. It provides type-safe access to the settings needed by the
// stores, the account locker, the event publisher and the balance rules
// while keeping configuration details separate from business logic.
package config

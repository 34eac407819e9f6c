// Package events provides types and interfaces for an event-driven architecture.
//
// Services emit events without knowing which handlers will process them.
// The balance service emits a TransactionRecorded event after each attempt is
// persisted; handlers registered on the emitter forward it to RabbitMQ or
// Kafka when a broker is configured.
//
// The primary components are:
// - Event: the envelope carrying a typed JSON payload
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events

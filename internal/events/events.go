package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/account-api/internal/domain"
)

// TransactionRecordedType is the type of the event emitted after every
// balance attempt has been persisted, successful or not.
const TransactionRecordedType = "transaction.recorded"

// Event is the envelope published to event handlers and brokers.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type identifies the payload schema, e.g. TransactionRecordedType
	Type string `json:"type"`

	// Key groups related events; brokers use it for ordering and partitioning
	Key string `json:"key"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type, key and payload.
func NewEvent(eventType, key string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Key:       key,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// TransactionRecorded is the payload of a TransactionRecordedType event.
type TransactionRecorded struct {
	TransactionID         string                       `json:"transaction_id"`
	AccountNumber         string                       `json:"account_number"`
	TransactionType       domain.TransactionType       `json:"transaction_type"`
	TransactionResultType domain.TransactionResultType `json:"transaction_result_type"`
	Amount                int64                        `json:"amount"`
	BalanceSnapshot       int64                        `json:"balance_snapshot"`
	TransactedAt          time.Time                    `json:"transacted_at"`
	CanceledTransactionID string                       `json:"canceled_transaction_id,omitempty"`
	ErrorCode             domain.ErrorCode             `json:"error_code,omitempty"`
}

// NewTransactionRecordedEvent builds the event for a persisted record.
// Events for one account share the account number as key.
func NewTransactionRecordedEvent(tx *domain.Transaction) (*Event, error) {
	return NewEvent(TransactionRecordedType, tx.AccountNumber, TransactionRecorded{
		TransactionID:         tx.ID,
		AccountNumber:         tx.AccountNumber,
		TransactionType:       tx.Type,
		TransactionResultType: tx.Result,
		Amount:                tx.Amount,
		BalanceSnapshot:       tx.BalanceSnapshot,
		TransactedAt:          tx.TransactedAt,
		CanceledTransactionID: tx.CanceledTransactionID,
		ErrorCode:             tx.ErrorCode,
	})
}

// EventHandler defines an interface for components that can handle events.
// Broker publishers are handlers that forward events out of the process.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *Event) error
}

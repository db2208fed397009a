// Package events publishes SDK lifecycle events (transfer status changes,
// transaction monitoring) to a pluggable backend: no-op, in-memory, or
// RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"mantra-sdk/internal/errors"
)

// Event types emitted by the SDK.
const (
	TypeTransferInitiated = "transfer.initiated"
	TypeTransferUpdated   = "transfer.updated"
	TypeTxMonitored       = "tx.monitored"
)

// Event is one lifecycle notification.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// New builds an event with a fresh id and the payload JSON-encoded.
func New(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, errors.Wrap(errors.CodeSerialization, err, "encode event payload")
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}, nil
}

// Publisher delivers events to a backend.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type noopPublisher struct{}

// NewNoop returns a publisher that drops everything.
func NewNoop() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, Event) error { return nil }
func (noopPublisher) Close() error                         { return nil }

// Package events publishes domain events to an external broker so
// downstream consumers (reporting pipelines, alerting) can react to
// emission activity without polling the API.
package events

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"
)

// Event kinds emitted by the API server.
const (
	KindEmissionRecorded    = "emissions.recorded"
	KindPredictionCompleted = "predictions.completed"
)

// Envelope is the wire format for every published event.
type Envelope struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// Handler processes a delivered envelope. Return an error to signal a
// retry/nack where the backend supports it.
type Handler func(ctx context.Context, envelope Envelope) error

// Backend defines the broker-agnostic operations used by the publisher.
type Backend interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, topic string, handler func(ctx context.Context, data []byte) error) error
	Close() error
}

// Publisher wraps a backend with the domain event API. A nil Publisher
// is valid and drops every event, so callers never need to branch on
// whether eventing is configured.
type Publisher struct {
	backend Backend
}

// NewPublisher constructs a Publisher for the provided backend.
func NewPublisher(backend Backend) *Publisher {
	return &Publisher{backend: backend}
}

// Emit publishes a domain event. Publishing is best-effort: failures are
// logged and never propagate to the request that triggered the event.
func (p *Publisher) Emit(ctx context.Context, kind string, payload any) {
	if p == nil || p.backend == nil {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Error("event payload marshal failed", "kind", kind, "error", err)
		return
	}
	envelope := Envelope{
		ID:         newEventID(),
		Kind:       kind,
		OccurredAt: time.Now(),
		Payload:    raw,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		slog.Error("event envelope marshal failed", "kind", kind, "error", err)
		return
	}

	if _, err := p.backend.Publish(ctx, kind, data, map[string]string{"kind": kind}); err != nil {
		slog.Error("event publish failed", "kind", kind, "error", err)
	}
}

// Subscribe consumes envelopes of the given kind. Intended for external
// worker processes built on this package.
func (p *Publisher) Subscribe(ctx context.Context, kind string, handler Handler) error {
	return p.backend.Subscribe(ctx, kind, func(ctx context.Context, data []byte) error {
		var envelope Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			slog.Error("event envelope decode failed", "kind", kind, "error", err)
			return nil
		}
		return handler(ctx, envelope)
	})
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	if p == nil || p.backend == nil {
		return nil
	}
	return p.backend.Close()
}

func newEventID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(buf[:])
}

// Package publish delivers change notifications to downstream consumers.
package publish

import "context"

// Publisher sends one JSON-encodable payload to a named topic and returns
// the provider's message ID.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
	Close() error
}

// Noop discards every publish. It is the default when no downstream
// consumer is configured.
type Noop struct{}

// NewNoop returns a Noop publisher.
func NewNoop() *Noop { return &Noop{} }

// Publish discards the payload.
func (*Noop) Publish(context.Context, string, any) (string, error) {
	return "noop", nil
}

// Close is a no-op.
func (*Noop) Close() error { return nil }

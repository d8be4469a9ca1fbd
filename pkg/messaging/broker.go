package messaging

import "context"

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}

// Message is the envelope written to the broker.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// NopBroker drops every message. It is used when no broker is configured.
type NopBroker struct{}

func (NopBroker) Publish(ctx context.Context, channel string, message interface{}) error { return nil }
func (NopBroker) Close() error                                                         { return nil }

package patient

import (
	"context"
	"sync"

	"github.com/jwalitptl/hairline-crm/pkg/messaging"
)

// recordingBroker keeps published messages in memory.
type recordingBroker struct {
	mu       sync.Mutex
	Messages []messaging.Message
	Err      error
}

func (b *recordingBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return b.Err
	}
	if m, ok := message.(messaging.Message); ok {
		b.Messages = append(b.Messages, m)
	} else {
		b.Messages = append(b.Messages, messaging.Message{Type: channel, Payload: message})
	}
	return nil
}

func (b *recordingBroker) Close() error { return nil }

// Types returns the message types seen so far, in order.
func (b *recordingBroker) Types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.Messages))
	for i, m := range b.Messages {
		out[i] = m.Type
	}
	return out
}

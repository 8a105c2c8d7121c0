package publisher

import (
	"context"

	"attestgate/pkg/platform/audit"
)

// Channel publishes audit events onto an in-process channel, normally
// consumed by the audit worker. It backs deployments without Kafka.
type Channel struct {
	out chan<- audit.Event
}

// NewChannel creates a publisher writing to the given channel.
func NewChannel(out chan<- audit.Event) *Channel {
	return &Channel{out: out}
}

// Emit enqueues the event. It blocks when the channel is full so compliance
// events are not silently dropped under load.
func (c *Channel) Emit(ctx context.Context, event audit.Event) error {
	select {
	case c.out <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package audit

import "context"

// Store persists audit events. The Kafka publisher is the production sink;
// the in-memory store backs tests and the channel worker.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher emits audit events for security- and compliance-relevant
// operations. Implementations decide delivery semantics; callers treat Emit
// as best-effort unless documented otherwise.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Package publisher ships audit events to Kafka.
//
// Compliance-category events are produced synchronously: the caller blocks
// until the broker acknowledges, and a delivery failure is returned so the
// operation can decide whether to proceed. Security and operations events
// are produced asynchronously and delivery failures are only logged.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"attestgate/internal/platform/kafka"
	"attestgate/pkg/platform/audit"
)

// Topic is the Kafka topic audit events are produced to. Events are keyed
// by subject reference code so per-subject ordering holds within a
// partition.
const Topic = "attestgate.audit"

// Kafka publishes audit events to the audit topic.
type Kafka struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// Option configures the publisher.
type Option func(*Kafka)

// WithLogger sets a logger for async delivery failures.
func WithLogger(logger *slog.Logger) Option {
	return func(k *Kafka) {
		k.logger = logger
	}
}

// NewKafka creates a Kafka-backed audit publisher.
func NewKafka(producer *kafka.Producer, opts ...Option) *Kafka {
	k := &Kafka{
		producer: producer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Emit publishes an audit event. Compliance events block until acknowledged
// and surface delivery errors; everything else is fire-and-forget.
func (k *Kafka) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return fmt.Errorf("audit event requires an action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	key := []byte(event.SubjectRefCode)

	if event.Category == audit.CategoryCompliance {
		if err := k.producer.ProduceSync(ctx, Topic, key, value); err != nil {
			k.logger.ErrorContext(ctx, "compliance audit delivery failed",
				"action", event.Action,
				"subject_ref", event.SubjectRefCode,
				"error", err,
			)
			return fmt.Errorf("compliance audit delivery failed: %w", err)
		}
		return nil
	}

	k.producer.Produce(ctx, Topic, key, value, func(err error) {
		if err != nil {
			k.logger.Error("audit delivery failed",
				"action", event.Action,
				"category", event.Category,
				"error", err,
			)
		}
	})
	return nil
}

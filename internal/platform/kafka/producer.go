// Package kafka wraps the franz-go client with the small producer surface
// the audit pipeline needs.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer publishes records to Kafka.
type Producer struct {
	client *kgo.Client
}

// NewProducer connects to the brokers and ensures the given topics exist.
// Topic creation is idempotent: already-exists responses are ignored so
// multiple instances can race at startup.
func NewProducer(ctx context.Context, brokers []string, topics ...string) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}

	if len(topics) > 0 {
		admin := kadm.NewClient(client)
		responses, err := admin.CreateTopics(ctx, 3, 1, nil, topics...)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("create topics: %w", err)
		}
		for _, resp := range responses {
			if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
				client.Close()
				return nil, fmt.Errorf("create topic %s: %w", resp.Topic, resp.Err)
			}
		}
	}

	return &Producer{client: client}, nil
}

// Produce publishes asynchronously; delivery failures surface through the
// callback. Callers that need delivery confirmation use ProduceSync.
func (p *Producer) Produce(ctx context.Context, topic string, key, value []byte, done func(error)) {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	p.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if done != nil {
			done(err)
		}
	})
}

// ProduceSync publishes and blocks until the broker acknowledges.
func (p *Producer) ProduceSync(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Producer) Close() {
	p.client.Close()
}

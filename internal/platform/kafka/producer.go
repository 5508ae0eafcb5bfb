// Package kafka wraps the franz-go client behind a small producer surface.
// Kafka carries the audit event stream; stores remain the queryable
// materialization.
package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"goalplan/internal/platform/config"
)

// Message is a produced record, key included for partition affinity.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// Producer publishes messages synchronously. Audit durability beats
// throughput here; the volume is one record per calculation.
type Producer struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewProducer connects to the brokers and ensures the configured topic
// exists. Topic creation is idempotent across instances.
func NewProducer(ctx context.Context, cfg config.KafkaConfig, logger *slog.Logger) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	admin := kadm.NewClient(client)
	if _, err := admin.CreateTopic(ctx, 1, 1, nil, cfg.Topic); err != nil {
		// An existing topic is fine; anything else is not.
		logger.Debug("create topic", "topic", cfg.Topic, "result", err.Error())
	}

	return &Producer{client: client, logger: logger}, nil
}

// Produce publishes one message and waits for the broker ack.
func (p *Producer) Produce(ctx context.Context, msg Message) error {
	record := &kgo.Record{Topic: msg.Topic, Key: msg.Key, Value: msg.Value}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", msg.Topic, err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Producer) Close() {
	p.client.Close()
}

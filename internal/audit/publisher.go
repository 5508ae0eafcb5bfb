package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"goalplan/internal/platform/kafka"
	"goalplan/pkg/platform/circuit"
)

// Sink receives serialized audit records after they are persisted. The
// Kafka producer satisfies this; a nil sink keeps records store-only.
type Sink interface {
	Produce(ctx context.Context, msg kafka.Message) error
}

// Publisher persists records and fans them out to the event stream. The
// store write is authoritative; a sink failure is logged, not surfaced, so
// a broker outage never fails a calculation. A breaker around the sink
// tracks the outage so a dead broker logs once, not once per request.
type Publisher struct {
	store   Store
	sink    Sink
	topic   string
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewPublisher(store Store, sink Sink, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:   store,
		sink:    sink,
		topic:   topic,
		breaker: circuit.New("audit-sink", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(1)),
		logger:  logger,
	}
}

// Publish writes the record and emits it downstream.
func (p *Publisher) Publish(ctx context.Context, record CalculationAuditRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if record.EngineVersion == "" {
		record.EngineVersion = EngineVersion
	}
	if err := p.store.Append(ctx, record); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}

	if p.sink == nil {
		return nil
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(record.UserID.String()),
		Value: payload,
	}
	if err := p.sink.Produce(ctx, msg); err != nil {
		degraded, change := p.breaker.RecordFailure()
		switch {
		case change.Opened:
			p.logger.Error("audit event stream degraded, records persisted store-only",
				"breaker", p.breaker.Name(),
				"error", err,
			)
		case degraded:
			// Known-degraded stream; keep the log quiet until it recovers.
			p.logger.Debug("audit event stream publish failed, record persisted",
				"record_id", record.ID.String(),
				"error", err,
			)
		default:
			p.logger.Error("audit event stream publish failed, record persisted",
				"record_id", record.ID.String(),
				"error", err,
			)
		}
		return nil
	}

	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.Info("audit event stream recovered", "breaker", p.breaker.Name())
	}
	return nil
}

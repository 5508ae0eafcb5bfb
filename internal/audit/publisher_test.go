package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goalplan/internal/platform/kafka"
	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

type captureSink struct {
	messages []kafka.Message
	err      error
}

func (s *captureSink) Produce(ctx context.Context, msg kafka.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func testRecord(t *testing.T) CalculationAuditRecord {
	t.Helper()
	userID, err := id.ParseUserID("7d3fb1f6-6f39-4e68-9df5-4f26a14b7a01")
	require.NoError(t, err)
	return CalculationAuditRecord{
		ID:             id.NewAuditRecordID(),
		UserID:         userID,
		TaxYear:        id.MustTaxYear("2024/25"),
		ConfigVersions: map[string]string{"UK:2024/25": "UK:2024/25@v1"},
		RequestHash:    "abc123",
		Request:        json.RawMessage(`{"tax_year":"2024/25"}`),
		Intermediates:  json.RawMessage(`{}`),
		Result:         json.RawMessage(`{"total":"3486"}`),
	}
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("records are write-once", func(t *testing.T) {
		store := NewInMemoryStore()
		record := testRecord(t)
		record.CreatedAt = time.Now()
		require.NoError(t, store.Append(ctx, record))

		err := store.Append(ctx, record)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

		got, err := store.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.RequestHash, got.RequestHash)
	})

	t.Run("unknown record is not found", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.Get(ctx, id.NewAuditRecordID())
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("list filters by user and year in append order", func(t *testing.T) {
		store := NewInMemoryStore()
		first := testRecord(t)
		second := testRecord(t)
		other := testRecord(t)
		other.TaxYear = id.MustTaxYear("2023/24")
		require.NoError(t, store.Append(ctx, first))
		require.NoError(t, store.Append(ctx, second))
		require.NoError(t, store.Append(ctx, other))

		records, err := store.ListByUser(ctx, first.UserID, first.TaxYear)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, first.ID, records[0].ID)
		assert.Equal(t, second.ID, records[1].ID)
	})
}

func TestPublisher(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("persists then emits to the stream", func(t *testing.T) {
		store := NewInMemoryStore()
		sink := &captureSink{}
		publisher := NewPublisher(store, sink, "tax.audit", logger)

		record := testRecord(t)
		require.NoError(t, publisher.Publish(ctx, record))

		stored, err := store.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.False(t, stored.CreatedAt.IsZero())
		assert.Equal(t, EngineVersion, stored.EngineVersion)

		require.Len(t, sink.messages, 1)
		assert.Equal(t, "tax.audit", sink.messages[0].Topic)
		assert.Equal(t, record.UserID.String(), string(sink.messages[0].Key))
	})

	t.Run("sink failure does not fail the publish", func(t *testing.T) {
		store := NewInMemoryStore()
		sink := &captureSink{err: errors.New("broker down")}
		publisher := NewPublisher(store, sink, "tax.audit", logger)

		record := testRecord(t)
		require.NoError(t, publisher.Publish(ctx, record))

		_, err := store.Get(ctx, record.ID)
		assert.NoError(t, err, "the store write is authoritative")
	})

	t.Run("nil sink keeps records store-only", func(t *testing.T) {
		store := NewInMemoryStore()
		publisher := NewPublisher(store, nil, "tax.audit", logger)
		require.NoError(t, publisher.Publish(ctx, testRecord(t)))
	})

	t.Run("a broker outage never blocks records, and recovery resumes emission", func(t *testing.T) {
		store := NewInMemoryStore()
		sink := &captureSink{err: errors.New("broker down")}
		publisher := NewPublisher(store, sink, "tax.audit", logger)

		for i := 0; i < 8; i++ {
			require.NoError(t, publisher.Publish(ctx, testRecord(t)))
		}

		sink.err = nil
		record := testRecord(t)
		require.NoError(t, publisher.Publish(ctx, record))

		require.Len(t, sink.messages, 1, "emission resumes once the broker is back")
		records, err := store.ListByUser(ctx, record.UserID, record.TaxYear)
		require.NoError(t, err)
		assert.Len(t, records, 9, "every record was persisted throughout")
	})

	t.Run("store conflict surfaces", func(t *testing.T) {
		store := NewInMemoryStore()
		publisher := NewPublisher(store, nil, "tax.audit", logger)
		record := testRecord(t)
		require.NoError(t, publisher.Publish(ctx, record))
		err := publisher.Publish(ctx, record)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func TestWorker(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewInMemoryStore()
	publisher := NewPublisher(store, nil, "tax.audit", logger)

	inbox := make(chan CalculationAuditRecord, 4)
	worker := NewWorker(publisher, inbox, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	record := testRecord(t)
	inbox <- record

	require.Eventually(t, func() bool {
		_, err := store.Get(context.Background(), record.ID)
		return err == nil
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

package audit

import (
	"context"
	"log/slog"
)

// Worker consumes records from a channel and publishes them off the request
// path. The inbox is buffered by the caller; a full inbox applies
// backpressure rather than dropping records.
type Worker struct {
	publisher *Publisher
	inbox     <-chan CalculationAuditRecord
	logger    *slog.Logger
}

func NewWorker(publisher *Publisher, inbox <-chan CalculationAuditRecord, logger *slog.Logger) *Worker {
	return &Worker{publisher: publisher, inbox: inbox, logger: logger}
}

// Run processes records until the context is cancelled. Publish failures
// are logged and the loop continues; a single bad record must not stall the
// stream behind it.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case record := <-w.inbox:
			if err := w.publisher.Publish(ctx, record); err != nil {
				w.logger.Error("publish audit record",
					"record_id", record.ID.String(),
					"error", err,
				)
			}
		}
	}
}

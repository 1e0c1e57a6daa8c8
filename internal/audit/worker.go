package audit

import (
	"context"
	"log/slog"
)

// Worker drains an event channel into the audit store. It is the common
// consumption stage for both the in-process pipeline and the Kafka consumer.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run consumes until the context is cancelled. A failed append is logged and
// the event dropped; the audit trail is best effort by design and must not
// wedge the pipeline behind one poison event.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"error", err,
					"type", event.Type,
					"event_id", event.ID,
				)
			}
		}
	}
}

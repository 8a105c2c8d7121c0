package worker

import (
	"context"
	"log/slog"

	"attestgate/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. Services
// that cannot block on audit delivery push to the inbox; the worker owns
// the write path. Append failures for non-compliance events are logged and
// skipped so one bad event cannot stall the pipeline.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				if event.Category == audit.CategoryCompliance {
					return err
				}
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"category", event.Category,
					"error", err,
				)
			}
		}
	}
}

package audit

import (
	"context"
	"log/slog"
)

// Worker consumes audit events from a channel and fans them out to the
// configured sinks. A failing sink is logged and skipped; the event log
// must never block ceremony traffic.
type Worker struct {
	logger *slog.Logger
	sinks  []Sink
	inbox  <-chan Event
}

// Sink receives every event the worker drains. The durable store and the
// optional Kafka publisher both satisfy it.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

func NewWorker(logger *slog.Logger, inbox <-chan Event, sinks ...Sink) *Worker {
	return &Worker{logger: logger, inbox: inbox, sinks: sinks}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			for _, sink := range w.sinks {
				if err := sink.Append(ctx, event); err != nil {
					w.logger.ErrorContext(ctx, "audit sink append failed",
						"action", event.Action,
						"owner", event.OwnerAddress,
						"error", err,
					)
				}
			}
		}
	}
}

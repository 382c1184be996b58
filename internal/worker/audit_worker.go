package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/user-console/internal/events"
)

// AuditWorker consumes session lifecycle events and writes the audit log
// off the request path.
type AuditWorker struct {
	logger *zap.Logger
	queue  chan events.Event
	done   chan struct{}
}

// StartAuditWorker subscribes to the full event stream and begins draining.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) *AuditWorker {
	if dispatcher == nil {
		return nil
	}
	w := &AuditWorker{
		logger: logger,
		queue:  make(chan events.Event, 128),
		done:   make(chan struct{}),
	}
	for _, eventType := range events.All() {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
	go w.run()
	return w
}

// enqueue hands the event to the drain goroutine. A full queue drops the
// event rather than stalling the publisher.
func (w *AuditWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("audit queue full, dropping event", zap.String("type", string(event.Type)))
	}
	return nil
}

func (w *AuditWorker) run() {
	defer close(w.done)
	for event := range w.queue {
		w.logger.Info("audit",
			zap.String("event", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.String("session_id", event.SessionID),
			zap.String("user_id", event.UserID),
			zap.Time("at", event.Timestamp),
			zap.Any("payload", event.Payload),
		)
	}
}

// Stop drains remaining events and shuts the worker down.
func (w *AuditWorker) Stop() {
	if w == nil {
		return
	}
	close(w.queue)
	<-w.done
}

package notify

import (
	"context"

	"github.com/feichai0017/docstream/internal/models"
	"github.com/feichai0017/docstream/pkg/logger"
)

// Event is a document status transition visible to external subscribers.
type Event struct {
	Action     string        `json:"action"`
	DocumentID string        `json:"documentId"`
	Name       string        `json:"name"`
	Status     models.Status `json:"status"`
}

const ActionStatusUpdate = "file-status-update"

// Notifier is a fire-and-forget sink for status events. Delivery is
// best-effort and at-most-once; persisted state is the source of truth,
// so Publish errors must never influence pipeline outcomes.
type Notifier interface {
	Publish(ctx context.Context, event Event) error
}

// Multi fans an event out to several notifiers, logging and swallowing
// individual failures.
type Multi struct {
	notifiers []Notifier
	logger    logger.Logger
}

func NewMulti(log logger.Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, logger: log}
}

func (m *Multi) Publish(ctx context.Context, event Event) error {
	for _, n := range m.notifiers {
		if err := n.Publish(ctx, event); err != nil {
			m.logger.Warn("Failed to publish status event",
				logger.String("documentId", event.DocumentID),
				logger.Error(err),
			)
		}
	}
	return nil
}

// LogNotifier writes events to the log. Used by the CLI.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (l *LogNotifier) Publish(ctx context.Context, event Event) error {
	l.logger.Info("Document status update",
		logger.String("documentId", event.DocumentID),
		logger.String("name", event.Name),
		logger.String("status", string(event.Status)),
	)
	return nil
}

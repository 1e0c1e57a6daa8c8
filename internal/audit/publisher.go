package audit

import (
	"context"
	"log/slog"

	"tutorhub/internal/platform/metrics"
)

// Publisher accepts audit events from services. Publishing is fire-and-
// forget: a request must never fail because the audit pipeline is behind.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// ChannelPublisher feeds events straight to the in-process worker. Used when
// no Kafka brokers are configured.
type ChannelPublisher struct {
	inbox   chan Event
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewChannelPublisher builds a publisher with a bounded inbox. The returned
// channel is the worker's input.
func NewChannelPublisher(logger *slog.Logger, m *metrics.Metrics) (*ChannelPublisher, <-chan Event) {
	inbox := make(chan Event, 256)
	return &ChannelPublisher{inbox: inbox, logger: logger, metrics: m}, inbox
}

// Emit enqueues the event. When the worker cannot keep up the event is
// dropped with a log line rather than blocking the request path.
func (p *ChannelPublisher) Emit(ctx context.Context, event Event) error {
	select {
	case p.inbox <- event:
		p.metrics.IncrementAuditPublished(string(event.Type))
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"type", event.Type,
			"subject_id", event.SubjectID,
		)
	}
	return nil
}

// NopPublisher discards events. Used by tests that do not assert on audit.
type NopPublisher struct{}

func (NopPublisher) Emit(context.Context, Event) error { return nil }

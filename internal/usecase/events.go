package usecase

import (
	"context"
	"log/slog"

	"github.com/xavierca1/mrk-crm/internal/infra/queue"
)

// eventSink publishes lead events after the write they describe has been
// committed. Failures are logged and counted, never returned.
type eventSink struct {
	publisher EventPublisher
	metrics   MetricsRecorder
	logger    *slog.Logger
}

func (s eventSink) emit(ctx context.Context, event queue.LeadEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLeadEvent(ctx, event); err != nil {
		s.metrics.RecordEventPublished(event.Type, "error")
		s.logger.Warn("lead event not published", "type", event.Type, "lead_id", event.LeadID, "error", err)
		return
	}
	s.metrics.RecordEventPublished(event.Type, "ok")
}

func orNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopRecorder{}
	}
	return m
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

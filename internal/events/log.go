package events

import (
	"context"
	"encoding/json"
	"log/slog"
)

// LogSink writes events to the structured log. It is the sink of choice when
// no broker is configured, so lifecycle operations keep an audit trail.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink constructs a log-backed event sink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Publish records the event and its payload at info level.
func (s *LogSink) Publish(ctx context.Context, name string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "domain event", "event", name, "payload", string(body))
	return nil
}

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	logger := New(&bytes.Buffer{}, slog.LevelInfo)
	ctx := ContextWithLogger(context.Background(), logger)

	if got := FromContext(ctx); got != logger {
		t.Fatalf("expected logger from context, got %v", got)
	}
}

func TestFromContextWithoutLogger(t *testing.T) {
	if got := FromContext(context.Background()); got != nil {
		t.Fatalf("expected nil logger, got %v", got)
	}
	if got := FromContext(nil); got != nil {
		t.Fatalf("expected nil logger for nil context, got %v", got)
	}
}

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)
	logger.Info("reservation created", "reservation_id", "res-1")

	out := buf.String()
	if !strings.Contains(out, `"reservation_id":"res-1"`) {
		t.Fatalf("expected JSON attribute in output, got %s", out)
	}
}

package events

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLogSink_Publish(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := sink.Publish(context.Background(), "reservation.created", map[string]string{"reservation_id": "res-1"})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "reservation.created") {
		t.Fatalf("event name missing from log output: %s", out)
	}
	if !strings.Contains(out, "res-1") {
		t.Fatalf("payload missing from log output: %s", out)
	}
}

func TestLogSink_UnmarshalablePayload(t *testing.T) {
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))
	if err := sink.Publish(context.Background(), "reservation.created", make(chan int)); err == nil {
		t.Fatalf("expected marshal error")
	}
}

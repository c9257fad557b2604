package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("from context")

	if buf.Len() == 0 {
		t.Error("logger from context did not write")
	}
}

func TestFromContext_Default(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Error("FromContext() returned nil")
	}
}

func TestIDs(t *testing.T) {
	ctx := context.Background()
	if RunIDFromContext(ctx) != "" || RequestIDFromContext(ctx) != "" {
		t.Error("empty context carries IDs")
	}

	ctx = WithRunID(ctx, "run-1")
	ctx = WithRequestID(ctx, "req-1")
	if got := RunIDFromContext(ctx); got != "run-1" {
		t.Errorf("RunIDFromContext() = %q", got)
	}
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
}

func TestL(t *testing.T) {
	tests := []struct {
		name      string
		runID     string
		requestID string
	}{
		{"no ids", "", ""},
		{"run id", "run-7", ""},
		{"request id", "", "req-9"},
		{"both", "run-7", "req-9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: "info", Format: "json", Output: &buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			ctx := WithLogger(context.Background(), l)
			if tt.runID != "" {
				ctx = WithRunID(ctx, tt.runID)
			}
			if tt.requestID != "" {
				ctx = WithRequestID(ctx, tt.requestID)
			}
			L(ctx).Info("msg")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("invalid JSON log: %v", err)
			}
			if got, _ := entry["run_id"].(string); got != tt.runID {
				t.Errorf("run_id = %q, want %q", got, tt.runID)
			}
			if got, _ := entry["request_id"].(string); got != tt.requestID {
				t.Errorf("request_id = %q, want %q", got, tt.requestID)
			}
		})
	}
}

func TestContextKeyCollision(t *testing.T) {
	ctx := context.WithValue(context.Background(), "stm.run_id", "plain-string-key")
	if got := RunIDFromContext(ctx); got != "" {
		t.Errorf("string key collided with typed key: %q", got)
	}
}

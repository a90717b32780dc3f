package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestWithRequestID_And_RequestIDFromContext(t *testing.T) {
	ctx := context.Background()
	requestID := "req-12345"

	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext() on empty ctx = %v, want empty", got)
	}

	ctx = WithRequestID(ctx, requestID)
	if got := RequestIDFromContext(ctx); got != requestID {
		t.Errorf("RequestIDFromContext() = %v, want %v", got, requestID)
	}
}

func TestFromContext_AttachesRequestID(t *testing.T) {
	var buf bytes.Buffer
	base, err := New(Options{Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := WithRequestID(context.Background(), "req-67890")
	scoped := FromContext(ctx, base)
	scoped.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"request_id":"req-67890"`) {
		t.Errorf("log output = %s, want request_id field", buf.String())
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Options{Level: "not-a-level"}); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestNew_DefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	base, err := New(Options{Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	base.Debug().Msg("should not appear")
	if buf.Len() != 0 {
		t.Errorf("debug message leaked at default info level: %s", buf.String())
	}
}

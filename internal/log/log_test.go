package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_AddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(ConfigFor(ComponentTasks, "info", "json", &buf))

	logger.Info("hello", "k", "v")
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, `"component":"tasks"`) || !strings.Contains(out, `"k":"v"`) {
		t.Fatalf("output = %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatal("debug line written at info level")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithIdentity("u1", "").
		WithTask("t1", "completed").
		WithError(nil).
		WithError(errors.New("boom"))

	if f[FieldUserID] != "u1" || f[FieldTaskStatus] != "completed" || f[FieldError] != "boom" {
		t.Fatalf("fields = %v", f)
	}
	if _, ok := f[FieldChapterID]; ok {
		t.Fatal("empty chapter id should be skipped")
	}
	if got := len(f.ToSlice()); got != 2*len(f) {
		t.Fatalf("ToSlice length = %d", got)
	}
}

func TestMiddleware_RequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(ConfigFor(ComponentApp, "info", "text", &buf))

	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("output = %s", buf.String())
	}
	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Fatalf("fallback component = %q", got)
	}
}

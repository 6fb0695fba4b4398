package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLoggerAddsCommandFields(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithCallerID(ctx, "1234")
	ctx = WithCommand(ctx, "send", "msg-9")

	var buf bytes.Buffer
	NewWithWriter(slog.LevelInfo, "json", &buf).InfoContext(ctx, "handled")

	out := buf.String()
	for _, want := range []string{
		`"request_id":"req-1"`,
		`"caller_id":"1234"`,
		`"verb":"send"`,
		`"message_id":"msg-9"`,
		`"service":"coinledger"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %q", want, out)
		}
	}
}

func TestLoggerSkipsEmptyFields(t *testing.T) {
	ctx := WithCommand(context.Background(), "balance", "")

	var buf bytes.Buffer
	NewWithWriter(slog.LevelDebug, "json", &buf).DebugContext(ctx, "plain")

	out := buf.String()
	if strings.Contains(out, "message_id") || strings.Contains(out, "caller_id") {
		t.Fatalf("unexpected empty fields in %q", out)
	}
	if !strings.Contains(out, `"verb":"balance"`) {
		t.Fatalf("expected verb in %q", out)
	}
}

func TestLoggerKeepsFieldsThroughWith(t *testing.T) {
	ctx := WithCallerID(context.Background(), "42")

	var buf bytes.Buffer
	logger := NewWithWriter(slog.LevelInfo, "json", &buf)
	logger.With("attempt", 2).WithGroup("tx").WarnContext(ctx, "retrying", "code", "40P01")

	out := buf.String()
	if !strings.Contains(out, `"caller_id":"42"`) || !strings.Contains(out, `"attempt":2`) {
		t.Fatalf("expected caller and attempt in %q", out)
	}
}

func TestLoggerFormats(t *testing.T) {
	tests := []struct {
		format   string
		wantJSON bool
	}{
		{format: "json", wantJSON: true},
		{format: "JSON", wantJSON: true},
		{format: "text"},
		{format: ""},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			NewWithWriter(slog.LevelInfo, tt.format, &buf).Info("formatted output")

			if got := strings.HasPrefix(buf.String(), "{"); got != tt.wantJSON {
				t.Fatalf("json output = %v, want %v: %q", got, tt.wantJSON, buf.String())
			}
		})
	}
}

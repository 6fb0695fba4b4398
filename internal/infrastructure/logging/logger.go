package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	callerIDKey
	messageIDKey
	verbKey
)

// fields lists the context values copied onto every record, in output order.
var fields = []struct {
	key  ctxKey
	attr string
}{
	{requestIDKey, "request_id"},
	{callerIDKey, "caller_id"},
	{verbKey, "verb"},
	{messageIDKey, "message_id"},
}

// WithRequestID returns a copy of ctx carrying requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithCallerID returns a copy of ctx carrying the external id issuing a command.
func WithCallerID(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, callerIDKey, callerID)
}

// WithCommand returns a copy of ctx carrying the verb and chat message id of the
// command being handled.
func WithCommand(ctx context.Context, verb, messageID string) context.Context {
	ctx = context.WithValue(ctx, verbKey, verb)
	return context.WithValue(ctx, messageIDKey, messageID)
}

// contextHandler adds the command fields found in the record's context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if ctx != nil {
		for _, f := range fields {
			if v, ok := ctx.Value(f.key).(string); ok && v != "" {
				rec.AddAttrs(slog.String(f.attr, v))
			}
		}
	}
	return h.Handler.Handle(ctx, rec)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// Logger is a slog logger whose *Context methods include command fields.
type Logger struct {
	*slog.Logger
}

// New creates a logger writing to stdout.
func New(level slog.Level, format string) *Logger {
	return NewWithWriter(level, format, os.Stdout)
}

// NewWithWriter creates a logger writing to w. format is "json" or "text".
func NewWithWriter(level slog.Level, format string, w io.Writer) *Logger {
	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if strings.EqualFold(format, "json") {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}

	return &Logger{Logger: slog.New(contextHandler{base}).With("service", "coinledger")}
}

// Default wraps the handler of slog.Default.
func Default() *Logger {
	return &Logger{Logger: slog.New(contextHandler{slog.Default().Handler()})}
}

// ParseLevel parses a level name, falling back to info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

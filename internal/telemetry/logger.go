// Package telemetry provides observability for the moltbot daemon.
package telemetry

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
)

type contextKey string

const cycleIDKey contextKey = "cycle_id"

// NewLogger creates a structured JSON logger with default fields.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// NewCycleID generates a ULID used to correlate one scheduler
// cycle across the journal, logs, and metrics.
func NewCycleID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// WithCycleID adds a scheduler cycle ID to the context.
// If id is empty, a new ULID is generated.
func WithCycleID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewCycleID()
	}
	return context.WithValue(ctx, cycleIDKey, id)
}

// CycleID retrieves the scheduler cycle ID from context.
func CycleID(ctx context.Context) string {
	if id, ok := ctx.Value(cycleIDKey).(string); ok {
		return id
	}
	return ""
}

// PersonaLogger returns a logger with persona-scoped fields.
func PersonaLogger(logger *slog.Logger, ctx context.Context, persona string) *slog.Logger {
	attrs := []any{
		slog.String("persona", persona),
	}
	if id := CycleID(ctx); id != "" {
		attrs = append(attrs, slog.String("cycle_id", id))
	}
	return logger.With(attrs...)
}

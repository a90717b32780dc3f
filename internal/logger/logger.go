// Package logger provides structured logging built on zerolog, with the
// controller's request-ID-scoped child logger carried through context.
package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Options describes logger configuration supplied at creation time.
type Options struct {
	Level  string
	Writer io.Writer
}

// New creates a configured zerolog.Logger from LOG_LEVEL-style options.
func New(opts Options) (zerolog.Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return zerolog.Logger{}, err
		}
		level = parsed
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger(), nil
}

type requestIDKey struct{}

// WithRequestID returns a new context carrying the given request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext extracts the request ID from the context, if any.
func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// FromContext returns base with the context's request ID attached, when present.
func FromContext(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	if reqID := RequestIDFromContext(ctx); reqID != "" {
		return base.With().Str("request_id", reqID).Logger()
	}
	return base
}

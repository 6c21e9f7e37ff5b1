package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

type fieldsKey struct{}

// WithLogger stores a logger in the context. Fields recorded by With are
// reset, since logger may not carry them.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	ctx = context.WithValue(ctx, fieldsKey{}, map[string]string(nil))
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx retrieves the logger from the context.
// If no logger is found, the global logger is returned.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// With returns a context whose logger carries the extra string field.
func With(ctx context.Context, key, value string) context.Context {
	prev, _ := ctx.Value(fieldsKey{}).(map[string]string)
	if v, ok := prev[key]; ok && v == value {
		return ctx
	}
	fields := make(map[string]string, len(prev)+1)
	for k, v := range prev {
		fields[k] = v
	}
	fields[key] = value

	l := Ctx(ctx)
	ctx = context.WithValue(ctx, ctxKey{}, l.With().Str(key, value).Logger())
	return context.WithValue(ctx, fieldsKey{}, fields)
}

// Field returns the value With attached to the context logger under key.
func Field(ctx context.Context, key string) (string, bool) {
	fields, _ := ctx.Value(fieldsKey{}).(map[string]string)
	v, ok := fields[key]
	return v, ok
}

// Str adds key to e unless the context logger already carries the same
// value under key.
func Str(ctx context.Context, e *zerolog.Event, key, value string) *zerolog.Event {
	if v, ok := Field(ctx, key); ok && v == value {
		return e
	}
	return e.Str(key, value)
}

// RequestID returns the request id attached by GinMiddleware or the gRPC
// interceptor, if any.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

type requestIDKey struct{}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

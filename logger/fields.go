package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across the server.
const (
	FieldRequestID = "request_id"
	FieldURI       = "uri"
	FieldLanguage  = "language_id"
	FieldRegionID  = "region_id"
	FieldServer    = "server_name"

	FieldComponent = "component"
	FieldMethod    = "method"

	FieldDurationMS = "duration_ms"

	FieldError     = "error"
	FieldErrorCode = "error_code"

	FieldCount = "count"

	FieldFile = "file"
	FieldLine = "line"
)

type contextKey string

const (
	requestIDKey contextKey = "logger_request_id"
	uriKey       contextKey = "logger_uri"
)

// WithRequestID attaches a semantic-token request id to the context so
// downstream log lines can be correlated with the request that spawned them.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithURI attaches a document URI to the context.
func WithURI(ctx context.Context, uri string) context.Context {
	return context.WithValue(ctx, uriKey, uri)
}

// FieldsFromContext extracts logging fields from context, suitable for use
// with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		fields = append(fields, FieldRequestID, v)
	}
	if v, ok := ctx.Value(uriKey).(string); ok && v != "" {
		fields = append(fields, FieldURI, v)
	}
	return fields
}

// LoggerFromContext returns a logger carrying request_id/uri fields pulled
// from context, falling back to the bare global logger.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific subsystem, the
// preferred way to hand a scoped logger to a component at construction time.
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldsFromContext_EmptyForBareContext(t *testing.T) {
	fields := FieldsFromContext(context.Background())
	assert.Empty(t, fields)
}

func TestFieldsFromContext_IncludesRequestIDAndURI(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithURI(ctx, "file:///a.lua")

	fields := FieldsFromContext(ctx)

	assert.Contains(t, fields, FieldRequestID)
	assert.Contains(t, fields, "req-1")
	assert.Contains(t, fields, FieldURI)
	assert.Contains(t, fields, "file:///a.lua")
}

func TestFieldsFromContext_EmptyRequestIDOmitted(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	fields := FieldsFromContext(ctx)
	assert.Empty(t, fields)
}

func TestLoggerFromContext_FallsBackToGlobalLoggerWithoutFields(t *testing.T) {
	got := LoggerFromContext(context.Background())
	assert.Same(t, Logger, got)
}

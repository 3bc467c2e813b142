package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONIncludesServiceAndContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{
		Level:          LogLevelDebug,
		Format:         LogFormatJSON,
		Output:         &buf,
		ServiceName:    "flightwatch",
		ServiceVersion: "1.2.3",
	})

	ctx := WithCorrelationID(context.Background(), "corr-1")
	ctx = WithOperation(ctx, "check_booking")
	logger.InfoContext(ctx, "checked", "booking_id", "b-1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "checked", record["msg"])
	assert.Equal(t, "flightwatch", record["service"])
	assert.Equal(t, "1.2.3", record["version"])
	assert.Equal(t, "corr-1", record[CorrelationIDKey])
	assert.Equal(t, "check_booking", record[OperationKey])
	assert.Equal(t, "b-1", record["booking_id"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelWarn, Format: LogFormatText, Output: &buf})

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLoggerFromEnv(t *testing.T) {
	t.Setenv("FLIGHTWATCH_ENV", "production")
	t.Setenv("FLIGHTWATCH_LOG_LEVEL", "error")

	logger := LoggerFromEnv("debug")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestWithCorrelationID_GeneratesWhenEmpty(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "")
	assert.NotEmpty(t, CorrelationIDFromContext(ctx))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

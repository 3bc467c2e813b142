package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier_WritesRecipientAndType(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))
	recipient := uuid.New()

	require.NoError(t, n.Notify(context.Background(), recipient, TypeConflictDetected, json.RawMessage(`{"severity":"high"}`)))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, recipient.String(), line["recipient_id"])
	assert.Equal(t, string(TypeConflictDetected), line["type"])
	assert.Equal(t, "notifier", line["component"])
}

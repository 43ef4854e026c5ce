package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	contextx "github.com/wolvina/wolvina-go/internal/wolvina/context"
)

func TestLoggerWritesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "info", Format: "json", Service: "actions", Output: &buf})

	ctx := contextx.WithRequestID(context.Background(), "req-1")
	ctx = contextx.WithSenderID(ctx, "student-42")
	logger.Info(ctx, "advice generated", KV("chars", 120), Err(errors.New("boom")))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "advice generated", line["message"])
	require.Equal(t, "req-1", line["request_id"])
	require.Equal(t, "student-42", line["sender_id"])
	require.Equal(t, "actions", line["service"])
	require.Equal(t, "boom", line["error"])
	require.EqualValues(t, 120, line["chars"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "warn", Format: "json", Output: &buf})

	logger.Debug(context.Background(), "hidden")
	logger.Info(context.Background(), "hidden")
	require.Zero(t, buf.Len())

	logger.Warn(context.Background(), "shown")
	require.Contains(t, buf.String(), "shown")
}

func TestWithAddsField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Format: "json", Output: &buf}).With("component", "search")
	logger.Info(context.Background(), "ok")
	require.Contains(t, buf.String(), `"component":"search"`)
}

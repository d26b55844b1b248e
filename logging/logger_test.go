package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLoggerWritesServiceAndModule(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&Config{Service: "simplex", Module: "solve", Level: "info"}, &buf)

	l.Info("solved", "iterations", 2)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "simplex", lines[0]["service"])
	assert.Equal(t, "solve", lines[0]["module"])
	assert.Equal(t, float64(2), lines[0]["iterations"])
	assert.Contains(t, lines[0], "timestamp")
}

func TestSetLevelAppliesToExistingLoggers(t *testing.T) {
	defer SetLevel("info")

	var buf bytes.Buffer
	l := newLogger(&Config{Service: "s", Module: "m", Level: "info"}, &buf)

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	SetLevel("debug")
	assert.Equal(t, slog.LevelDebug, GetLevel())
	l.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestTraceHandlerInjectsIDsAfterWith(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&Config{Service: "s", Module: "m"}, &buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	l.With("request_id", "r-1").InfoContext(ctx, "pivot")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, traceID.String(), lines[0]["trace_id"])
	assert.Equal(t, spanID.String(), lines[0]["span_id"])
	assert.Equal(t, "r-1", lines[0]["request_id"])
}

func TestBothOutputWritesFileAndStdout(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "simplex.log")
	l := newLogger(&Config{Service: "s", Module: "m", Output: OutputBoth, File: file, MaxSize: 1}, &buf)

	l.Warn("unbounded")

	assert.Contains(t, buf.String(), "unbounded")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "unbounded")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

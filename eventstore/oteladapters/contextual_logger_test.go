package oteladapters_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/noop"

	"github.com/AntonStoeckl/cloudevents-eventsourcing-go/eventstore/oteladapters"
)

type emitted struct {
	severity log.Severity
	body     string
	attrs    map[string]log.Value
}

type recordingLogger struct {
	noop.Logger
	records []emitted
}

func (l *recordingLogger) Emit(_ context.Context, record log.Record) {
	e := emitted{severity: record.Severity(), body: record.Body().AsString(), attrs: map[string]log.Value{}}
	record.WalkAttributes(func(kv log.KeyValue) bool {
		e.attrs[kv.Key] = kv.Value
		return true
	})

	l.records = append(l.records, e)
}

func Test_SlogBridgeLogger_Writes_All_Levels_With_And_Without_Context(t *testing.T) {
	// setup
	var buf bytes.Buffer
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	ctx := context.Background()

	// act
	logger.Debug("plain debug")
	logger.Info("plain info")
	logger.Warn("plain warn")
	logger.Error("plain error")
	logger.DebugContext(ctx, "ctx debug", "stream", "accounts")
	logger.InfoContext(ctx, "ctx info")
	logger.WarnContext(ctx, "ctx warn")
	logger.ErrorContext(ctx, "ctx error")

	// assert
	output := buf.String()
	for _, msg := range []string{
		"plain debug", "plain info", "plain warn", "plain error",
		"ctx debug", "ctx info", "ctx warn", "ctx error",
	} {
		assert.Contains(t, output, msg)
	}
	assert.Contains(t, output, `"level":"DEBUG"`)
	assert.Contains(t, output, `"level":"ERROR"`)
	assert.Contains(t, output, `"stream":"accounts"`)
}

func Test_NewSlogBridgeLogger_Uses_Global_Provider_Without_Panicking(t *testing.T) {
	logger := oteladapters.NewSlogBridgeLogger("test")

	assert.NotPanics(t, func() {
		logger.InfoContext(context.Background(), "eventstore operation: events appended", "event_count", 1)
	})
}

func Test_OTelLogger_Emits_Typed_Attributes(t *testing.T) {
	// setup
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)

	// act
	logger.InfoContext(context.Background(), "events appended",
		"stream", "accounts",
		"event_count", 2,
		"duration_ms", 1.5,
		"ok", true,
		"error", errors.New("boom"),
		"elapsed", 1500*time.Millisecond,
		42, "non-string key is skipped",
		"dangling",
	)

	// assert
	require.Len(t, recorder.records, 1)
	record := recorder.records[0]
	assert.Equal(t, log.SeverityInfo, record.severity)
	assert.Equal(t, "events appended", record.body)
	assert.Len(t, record.attrs, 6)
	assert.Equal(t, "accounts", record.attrs["stream"].AsString())
	assert.Equal(t, int64(2), record.attrs["event_count"].AsInt64())
	assert.InDelta(t, 1.5, record.attrs["duration_ms"].AsFloat64(), 0.0001)
	assert.True(t, record.attrs["ok"].AsBool())
	assert.Equal(t, "boom", record.attrs["error"].AsString())
	assert.Equal(t, int64(1500), record.attrs["elapsed"].AsInt64())
}

func Test_OTelLogger_Maps_Severities(t *testing.T) {
	recorder := &recordingLogger{}
	logger := oteladapters.NewOTelLogger(recorder)
	ctx := context.Background()

	logger.DebugContext(ctx, "d")
	logger.InfoContext(ctx, "i")
	logger.WarnContext(ctx, "w")
	logger.ErrorContext(ctx, "e")

	require.Len(t, recorder.records, 4)
	assert.Equal(t, log.SeverityDebug, recorder.records[0].severity)
	assert.Equal(t, log.SeverityInfo, recorder.records[1].severity)
	assert.Equal(t, log.SeverityWarn, recorder.records[2].severity)
	assert.Equal(t, log.SeverityError, recorder.records[3].severity)
}

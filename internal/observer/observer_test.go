package observer

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"

	"github.com/sliink/dataprocessor/internal/model"
)

func event(kind model.EventKind, payload any, metadata map[string]any) model.ProcessingEvent {
	return model.ProcessingEvent{ID: string(kind), Kind: kind, Timestamp: time.Now(), Payload: payload, Metadata: metadata}
}

func completed(success bool) model.ProcessingEvent {
	result := model.ProcessingResult{
		Success:  success,
		Metadata: model.ResultMetadata{Mode: model.ModeValidation, Backend: model.BackendRedis, ElapsedMillis: 3},
		Errors:   []string{},
	}
	if !success {
		result.Errors = []string{"Data validation failed"}
	}
	return event(model.EventComplete, result, nil)
}

func TestHistory(t *testing.T) {
	t.Run("Non-positive capacity uses the default", func(t *testing.T) {
		assert.Equal(t, DefaultHistoryCapacity, NewHistory(0).Status().Capacity)
	})

	t.Run("Keeps the most recent events in order", func(t *testing.T) {
		history := NewHistory(2)
		history.Notify(event(model.EventStart, nil, nil))
		history.Notify(event(model.EventComplete, nil, nil))
		history.Notify(event(model.EventConfigChange, nil, nil))

		events := history.Events(0)
		require.Len(t, events, 2)
		assert.Equal(t, model.EventComplete, events[0].Kind)
		assert.Equal(t, model.EventConfigChange, events[1].Kind)

		status := history.Status()
		assert.Equal(t, 2, status.Size)
		assert.Equal(t, 3, status.TotalEvents)
		assert.Equal(t, 1, status.Dropped)
	})

	t.Run("Limits and filters", func(t *testing.T) {
		history := NewHistory(10)
		for _, kind := range []model.EventKind{model.EventStart, model.EventComplete, model.EventStart, model.EventComplete} {
			history.Notify(event(kind, nil, nil))
		}

		assert.Len(t, history.Events(1), 1)
		assert.Len(t, history.Events(99), 4)
		assert.Len(t, history.Filter(model.EventStart), 2)
		assert.Empty(t, history.Filter(model.EventError))
	})

	t.Run("Returned slices are copies", func(t *testing.T) {
		history := NewHistory(10)
		history.Notify(event(model.EventStart, nil, nil))

		events := history.Events(0)
		events[0].Kind = model.EventError
		assert.Equal(t, model.EventStart, history.Events(0)[0].Kind)
	})

	t.Run("Clear drops held events but keeps totals", func(t *testing.T) {
		history := NewHistory(10)
		history.Notify(event(model.EventStart, nil, nil))
		history.Clear()

		assert.Empty(t, history.Events(0))
		assert.Equal(t, 1, history.Status().TotalEvents)
	})
}

func TestMetrics(t *testing.T) {
	metrics := NewMetrics()

	metrics.Notify(event(model.EventStart, nil, nil))
	metrics.Notify(completed(true))
	metrics.Notify(completed(false))
	metrics.Notify(event(model.EventError, "boom", map[string]any{"mode": model.ModeEnrichment, "backend": model.BackendMongo}))

	t.Run("Counts events by kind", func(t *testing.T) {
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.events.WithLabelValues("start")))
		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.events.WithLabelValues("complete")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.events.WithLabelValues("error")))
	})

	t.Run("Counts results by outcome", func(t *testing.T) {
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.results.WithLabelValues("validation", "redis", "success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.results.WithLabelValues("validation", "redis", "failure")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.results.WithLabelValues("enrichment", "mongodb", "fault")))
	})

	t.Run("Observes elapsed time per completed result", func(t *testing.T) {
		assert.Equal(t, 1, testutil.CollectAndCount(metrics.elapsed))
	})
}

func TestLogging(t *testing.T) {
	core, logs := zapobserver.New(zapcore.DebugLevel)
	logging := NewLogging(zap.New(core).Sugar())

	logging.Notify(event(model.EventStart, nil, map[string]any{"mode": "validation"}))
	logging.Notify(completed(false))
	logging.Notify(event(model.EventError, "boom", nil))
	logging.Notify(event(model.EventConfigChange, map[string]any{"mode": "enrichment"}, nil))

	entries := logs.All()
	require.Len(t, entries, 4)

	t.Run("Levels follow the event kind", func(t *testing.T) {
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
		assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
		assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
		assert.Equal(t, zapcore.InfoLevel, entries[3].Level)
	})

	t.Run("Fields carry kind, metadata and result details", func(t *testing.T) {
		start := entries[0].ContextMap()
		assert.Equal(t, "start", start["kind"])
		assert.Equal(t, "validation", start["mode"])
		assert.Equal(t, "pipeline_events", start["component"])

		complete := entries[1].ContextMap()
		assert.Equal(t, false, complete["success"])
		assert.Contains(t, complete, "errors")

		assert.Equal(t, "boom", entries[2].ContextMap()["error"])
	})
}

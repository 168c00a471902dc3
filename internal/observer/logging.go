package observer

import (
	"go.uber.org/zap"

	"github.com/sliink/dataprocessor/internal/model"
	"github.com/sliink/dataprocessor/pkg/logger"
)

// Logging writes every event to a zap logger
type Logging struct {
	log *zap.SugaredLogger
}

// NewLogging creates a logging observer. A nil logger uses the global one.
func NewLogging(log *zap.SugaredLogger) *Logging {
	if log == nil {
		log = logger.Get()
	}
	return &Logging{log: log.With("component", "pipeline_events")}
}

// Notify logs the event at a level matching its kind
func (l *Logging) Notify(event model.ProcessingEvent) {
	fields := []any{"event", event.ID, "kind", string(event.Kind)}
	for k, v := range event.Metadata {
		fields = append(fields, k, v)
	}

	switch event.Kind {
	case model.EventError:
		l.log.Errorw("pipeline event", append(fields, "error", event.Payload)...)
	case model.EventComplete:
		if result, ok := event.Payload.(model.ProcessingResult); ok {
			fields = append(fields, "success", result.Success, "elapsedMs", result.Metadata.ElapsedMillis)
			if !result.Success {
				fields = append(fields, "errors", result.Errors)
			}
		}
		l.log.Infow("pipeline event", fields...)
	case model.EventConfigChange:
		l.log.Infow("pipeline event", append(fields, "change", event.Payload)...)
	default:
		l.log.Debugw("pipeline event", fields...)
	}
}

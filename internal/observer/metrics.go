package observer

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sliink/dataprocessor/internal/model"
)

const namespace = "dataprocessor"

// Metrics counts pipeline events and results on its own prometheus registry
type Metrics struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
	results  *prometheus.CounterVec
	elapsed  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Pipeline events published, by kind.",
		}, []string{"kind"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_total",
			Help:      "Process calls by mode, backend and outcome.",
		}, []string{"mode", "backend", "outcome"}),
		elapsed: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_elapsed_milliseconds",
			Help:      "Strategy run time in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"mode", "backend"}),
	}
	m.registry.MustRegister(m.events, m.results, m.elapsed)
	return m
}

// Notify updates the counters for event
func (m *Metrics) Notify(event model.ProcessingEvent) {
	m.events.WithLabelValues(string(event.Kind)).Inc()

	switch event.Kind {
	case model.EventComplete:
		result, ok := event.Payload.(model.ProcessingResult)
		if !ok {
			return
		}
		mode, backend := string(result.Metadata.Mode), string(result.Metadata.Backend)
		outcome := "failure"
		if result.Success {
			outcome = "success"
		}
		m.results.WithLabelValues(mode, backend, outcome).Inc()
		m.elapsed.WithLabelValues(mode, backend).Observe(float64(result.Metadata.ElapsedMillis))
	case model.EventError:
		m.results.WithLabelValues(label(event.Metadata["mode"]), label(event.Metadata["backend"]), "fault").Inc()
	}
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func label(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

package core

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sliink/dataprocessor/internal/model"
	"github.com/sliink/dataprocessor/pkg/logger"
)

// AdapterResolver hands out connected adapters per backend
type AdapterResolver interface {
	Resolve(ctx context.Context, backend model.BackendType) (model.StorageAdapter, error)
	SupportedBackends() []model.BackendType
	ShutdownAll(ctx context.Context) error
}

// StrategyBuilder creates a strategy for a mode bound to an adapter
type StrategyBuilder interface {
	Build(mode model.ProcessingMode, adapter model.StorageAdapter) (model.Strategy, error)
	SupportedModes() []model.ProcessingMode
}

// Publisher delivers lifecycle events
type Publisher interface {
	Publish(event model.ProcessingEvent) error
}

// Pipeline routes records through the strategy selected by its current
// configuration. Process calls run concurrently with each other; a
// reconfiguration waits for in-flight calls and blocks new ones until the new
// adapter/strategy pair is in place.
//
// Observers are notified while Process holds the read lock, so they must not
// call SetMode, SetBackend, Apply or Shutdown synchronously.
type Pipeline struct {
	resolver  AdapterResolver
	builder   StrategyBuilder
	publisher Publisher
	config    model.PipelineConfiguration
	adapter   model.StorageAdapter
	strategy  model.Strategy
	tracer    trace.Tracer
	mutex     sync.RWMutex
	BaseComponent
}

// NewPipeline creates an unconfigured pipeline. Empty mode or backend fall
// back to validation and postgresql.
func NewPipeline(resolver AdapterResolver, builder StrategyBuilder, publisher Publisher, config model.PipelineConfiguration) *Pipeline {
	defaults := model.DefaultConfiguration()
	if config.Mode == "" {
		config.Mode = defaults.Mode
	}
	if config.Backend == "" {
		config.Backend = defaults.Backend
	}

	return &Pipeline{
		resolver:      resolver,
		builder:       builder,
		publisher:     publisher,
		config:        config.Clone(),
		tracer:        otel.Tracer("github.com/sliink/dataprocessor/internal/core"),
		BaseComponent: NewBaseComponent("pipeline", "Processing Pipeline"),
	}
}

// SetMode switches the processing mode. Setting the active mode is a no-op.
func (p *Pipeline) SetMode(ctx context.Context, mode model.ProcessingMode) error {
	if !slices.Contains(p.builder.SupportedModes(), mode) {
		return &model.UnknownModeError{Mode: mode}
	}
	return p.Apply(ctx, mode, "")
}

// SetBackend switches the storage backend. Setting the active backend is a no-op.
func (p *Pipeline) SetBackend(ctx context.Context, backend model.BackendType) error {
	if !slices.Contains(p.resolver.SupportedBackends(), backend) {
		return &model.UnknownBackendError{Backend: backend}
	}
	return p.Apply(ctx, "", backend)
}

// Apply changes mode and backend in a single reconfiguration. An empty value
// keeps the current setting. One config_change event is published per field
// that actually changed.
func (p *Pipeline) Apply(ctx context.Context, mode model.ProcessingMode, backend model.BackendType) error {
	if mode != "" && !slices.Contains(p.builder.SupportedModes(), mode) {
		return &model.UnknownModeError{Mode: mode}
	}
	if backend != "" && !slices.Contains(p.resolver.SupportedBackends(), backend) {
		return &model.UnknownBackendError{Backend: backend}
	}

	p.mutex.Lock()
	previous := p.config.Clone()
	next := p.config.Clone()
	if mode != "" {
		next.Mode = mode
	}
	if backend != "" {
		next.Backend = backend
	}
	if next.Mode == previous.Mode && next.Backend == previous.Backend {
		p.mutex.Unlock()
		return nil
	}

	p.config = next
	if err := p.reconfigureLocked(ctx); err != nil {
		p.config = previous
		p.mutex.Unlock()
		return err
	}
	p.mutex.Unlock()

	if next.Mode != previous.Mode {
		p.publish(MakeEvent(model.EventConfigChange,
			map[string]any{"mode": next.Mode},
			map[string]any{"previousMode": previous.Mode}))
	}
	if next.Backend != previous.Backend {
		p.publish(MakeEvent(model.EventConfigChange,
			map[string]any{"backend": next.Backend},
			map[string]any{"previousBackend": previous.Backend}))
	}
	return nil
}

// SetOptions merges opts into the configuration's free-form options
func (p *Pipeline) SetOptions(opts map[string]any) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.config.Options == nil {
		p.config.Options = make(map[string]any, len(opts))
	}
	maps.Copy(p.config.Options, model.Record(opts).Clone())
}

// Configure builds the adapter/strategy pair now instead of on first Process
func (p *Pipeline) Configure(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.strategy != nil {
		return nil
	}
	return p.reconfigureLocked(ctx)
}

// reconfigureLocked rebuilds the adapter/strategy pair for p.config.
// The caller must hold the write lock. On failure the current pair is kept.
func (p *Pipeline) reconfigureLocked(ctx context.Context) (err error) {
	mode, backend := p.config.Mode, p.config.Backend

	ctx, span := p.tracer.Start(ctx, "pipeline.reconfigure", trace.WithAttributes(
		attribute.String("mode", string(mode)),
		attribute.String("backend", string(backend)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	adapter, err := p.resolver.Resolve(ctx, backend)
	if err != nil {
		return &model.ReconfigurationError{Mode: mode, Backend: backend, Cause: err}
	}
	strategy, err := p.builder.Build(mode, adapter)
	if err != nil {
		return &model.ReconfigurationError{Mode: mode, Backend: backend, Cause: err}
	}

	p.adapter = adapter
	p.strategy = strategy
	p.SetStatus(model.StatusRunning)
	logger.Get().Infow("pipeline reconfigured", "component", p.ID(), "mode", mode, "backend", backend, "strategy", strategy.Identify())
	return nil
}

// Process runs data through the current strategy, configuring the pipeline
// first if needed. Data-level failures are reported in the result; the error
// is reserved for reconfiguration failures and strategy faults.
func (p *Pipeline) Process(ctx context.Context, data any) (model.ProcessingResult, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.process")
	defer span.End()

	p.mutex.RLock()
	for p.strategy == nil {
		p.mutex.RUnlock()
		p.mutex.Lock()
		if p.strategy == nil {
			if err := p.reconfigureLocked(ctx); err != nil {
				p.mutex.Unlock()
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return model.ProcessingResult{}, err
			}
		}
		p.mutex.Unlock()
		p.mutex.RLock()
	}
	defer p.mutex.RUnlock()

	strategy := p.strategy
	mode, backend := p.config.Mode, p.config.Backend
	meta := func() map[string]any {
		return map[string]any{"mode": mode, "backend": backend}
	}
	span.SetAttributes(
		attribute.String("mode", string(mode)),
		attribute.String("backend", string(backend)),
	)

	p.publish(MakeEvent(model.EventStart, snapshot(data), meta()))

	result, err := run(ctx, strategy, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.publish(MakeEvent(model.EventError, err.Error(), meta()))
		return model.ProcessingResult{}, err
	}

	span.SetAttributes(attribute.Bool("success", result.Success))
	p.publish(MakeEvent(model.EventComplete, result, meta()))
	return result, nil
}

// snapshot copies object-shaped input so observers never share the caller's map
func snapshot(data any) any {
	switch v := data.(type) {
	case model.Record:
		return v.Clone()
	case map[string]any:
		return map[string]any(model.Record(v).Clone())
	default:
		return data
	}
}

func run(ctx context.Context, strategy model.Strategy, data any) (result model.ProcessingResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s fault: %v", strategy.Identify(), r)
		}
	}()
	return strategy.Process(ctx, data), nil
}

func (p *Pipeline) publish(event model.ProcessingEvent) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(event); err != nil {
		logger.Get().Warnw("event delivery incomplete", "component", p.ID(), "kind", event.Kind, "error", err)
	}
}

// Configuration returns a copy of the current configuration
func (p *Pipeline) Configuration() model.PipelineConfiguration {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.config.Clone()
}

// State reports whether an adapter/strategy pair is in place
func (p *Pipeline) State() model.PipelineState {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	if p.strategy == nil {
		return model.StateUnconfigured
	}
	return model.StateConfigured
}

// CurrentStrategy returns the active strategy, or nil when unconfigured
func (p *Pipeline) CurrentStrategy() model.Strategy {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.strategy
}

// CurrentAdapter returns the active adapter, or nil when unconfigured
func (p *Pipeline) CurrentAdapter() model.StorageAdapter {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.adapter
}

// SupportedModes lists the modes SetMode accepts
func (p *Pipeline) SupportedModes() []model.ProcessingMode {
	return p.builder.SupportedModes()
}

// SupportedBackends lists the backends SetBackend accepts
func (p *Pipeline) SupportedBackends() []model.BackendType {
	return p.resolver.SupportedBackends()
}

// Shutdown disconnects every adapter and drops the current pair. The pipeline
// can be used again afterwards; the next Process reconnects.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	err := p.resolver.ShutdownAll(ctx)
	p.adapter = nil
	p.strategy = nil
	p.SetStatus(model.StatusStopped)
	logger.Get().Infow("pipeline shut down", "component", p.ID())
	return err
}

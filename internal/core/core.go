package core

import (
	"context"
	"sync"

	"github.com/sliink/dataprocessor/internal/model"
	"github.com/sliink/dataprocessor/internal/observer"
	"github.com/sliink/dataprocessor/internal/strategy"
	"github.com/sliink/dataprocessor/pkg/logger"
)

// Listener IDs of the observers the core subscribes
const (
	LoggingListener = "logging"
	MetricsListener = "metrics"
	HistoryListener = "history"
)

// Core is the central coordinator of the system
type Core struct {
	configManager *ConfigManager
	registry      *AdapterRegistry
	notifier      *EventNotifier
	pipeline      *Pipeline
	healthMonitor *HealthMonitor
	history       *observer.History
	metrics       *observer.Metrics
	cancel        context.CancelFunc
	mutex         sync.Mutex
	BaseComponent
}

// NewCore wires every component from the manager's current configuration
func NewCore(configManager *ConfigManager) *Core {
	if configManager == nil {
		configManager = NewConfigManager()
	}
	cfg := configManager.Config()

	c := &Core{
		configManager: configManager,
		registry:      NewAdapterRegistry(cfg.StorageOptions()),
		notifier:      NewEventNotifier(),
		healthMonitor: NewHealthMonitor(),
		history:       observer.NewHistory(cfg.History.Capacity),
		metrics:       observer.NewMetrics(),
		BaseComponent: NewBaseComponent("core", "Core System"),
	}
	c.pipeline = NewPipeline(c.registry, strategy.NewSelector(), c.notifier, cfg.Pipeline)

	c.notifier.Subscribe(LoggingListener, observer.NewLogging(nil))
	c.notifier.Subscribe(MetricsListener, c.metrics)
	c.notifier.Subscribe(HistoryListener, c.history)

	c.healthMonitor.RegisterComponent(c)
	c.healthMonitor.RegisterComponent(c.configManager)
	c.healthMonitor.RegisterComponent(c.registry)
	c.healthMonitor.RegisterComponent(c.notifier)
	c.healthMonitor.RegisterComponent(c.pipeline)
	c.healthMonitor.RegisterComponent(c.healthMonitor)
	c.healthMonitor.RegisterDetail("adapters", func() any { return c.registry.ConnectionStates() })
	c.healthMonitor.RegisterDetail("configuration", func() any { return c.pipeline.Configuration() })
	c.healthMonitor.RegisterDetail("state", func() any { return c.pipeline.State() })
	c.healthMonitor.RegisterDetail("history", func() any { return c.history.Status() })

	c.configManager.OnChange(c.applyFileConfig)
	return c
}

// GetComponent returns a component by ID
func (c *Core) GetComponent(id string) (Component, bool) {
	switch id {
	case "core":
		return c, true
	case "config_manager":
		return c.configManager, true
	case "adapter_registry":
		return c.registry, true
	case "event_notifier":
		return c.notifier, true
	case "pipeline":
		return c.pipeline, true
	case "health_monitor":
		return c.healthMonitor, true
	}
	return nil, false
}

// Pipeline returns the orchestrator
func (c *Core) Pipeline() *Pipeline { return c.pipeline }

// Registry returns the adapter registry
func (c *Core) Registry() *AdapterRegistry { return c.registry }

// Notifier returns the event notifier
func (c *Core) Notifier() *EventNotifier { return c.notifier }

// HealthMonitor returns the health monitor
func (c *Core) HealthMonitor() *HealthMonitor { return c.healthMonitor }

// ConfigManager returns the configuration manager
func (c *Core) ConfigManager() *ConfigManager { return c.configManager }

// History returns the event history observer
func (c *Core) History() *observer.History { return c.history }

// Metrics returns the metrics observer
func (c *Core) Metrics() *observer.Metrics { return c.metrics }

// Start connects the configured backend and, when watch is set, follows the
// config file for changes until Stop
func (c *Core) Start(ctx context.Context, watch bool) error {
	if err := c.pipeline.Configure(ctx); err != nil {
		c.SetStatus(model.StatusError)
		return err
	}

	if watch {
		watchCtx, cancel := context.WithCancel(context.Background())
		if err := c.configManager.Watch(watchCtx); err != nil {
			cancel()
			c.SetStatus(model.StatusError)
			return err
		}
		c.mutex.Lock()
		c.cancel = cancel
		c.mutex.Unlock()
	}

	c.SetStatus(model.StatusRunning)
	logger.Get().Infow("core started", "component", c.ID(), "watch", watch)
	return nil
}

// Stop ends config watching and disconnects every adapter
func (c *Core) Stop(ctx context.Context) error {
	c.mutex.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mutex.Unlock()

	err := c.pipeline.Shutdown(ctx)
	c.SetStatus(model.StatusStopped)
	logger.Get().Infow("core stopped", "component", c.ID())
	return err
}

// applyFileConfig carries a changed pipeline section over to the orchestrator
func (c *Core) applyFileConfig(cfg FileConfig) {
	ctx := context.Background()
	if err := c.pipeline.Apply(ctx, cfg.Pipeline.Mode, cfg.Pipeline.Backend); err != nil {
		logger.Get().Warnw("config change not applied", "component", c.ID(), "error", err)
		return
	}
	if len(cfg.Pipeline.Options) > 0 {
		c.pipeline.SetOptions(cfg.Pipeline.Options)
	}
}

package core

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/sliink/dataprocessor/internal/model"
)

// DetailFunc reports a live value included in the health details
type DetailFunc func() any

// HealthMonitor tracks system and component health
type HealthMonitor struct {
	components map[string]Component
	details    map[string]DetailFunc
	metrics    map[string]any
	mutex      sync.RWMutex
	BaseComponent
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor() *HealthMonitor {
	h := &HealthMonitor{
		components:    make(map[string]Component),
		details:       make(map[string]DetailFunc),
		metrics:       make(map[string]any),
		BaseComponent: NewBaseComponent("health_monitor", "Health Monitor"),
	}
	h.SetStatus(model.StatusRunning)
	return h
}

// RegisterComponent adds a component to be monitored
func (h *HealthMonitor) RegisterComponent(component Component) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.components[component.ID()] = component
}

// RegisterDetail adds a value computed each time health is requested
func (h *HealthMonitor) RegisterDetail(name string, fn DetailFunc) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.details[name] = fn
}

// AddMetric adds a metric value with optional metadata
func (h *HealthMonitor) AddMetric(name string, value any, metadata map[string]any) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	entry := make(map[string]any, len(metadata)+2)
	maps.Copy(entry, metadata)
	entry["value"] = value
	entry["timestamp"] = time.Now().UTC()

	h.metrics[name] = entry
}

// GetMetric retrieves a metric value
func (h *HealthMonitor) GetMetric(name string) (any, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	metric, exists := h.metrics[name]
	return metric, exists
}

// GetAllMetrics retrieves all metrics
func (h *HealthMonitor) GetAllMetrics() map[string]any {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return maps.Clone(h.metrics)
}

// GetHealthStatus retrieves the health status of the system
func (h *HealthMonitor) GetHealthStatus() model.HealthStatus {
	h.mutex.RLock()
	components := make(map[string]model.HealthStatus, len(h.components))
	now := time.Now().UTC()
	for id, component := range h.components {
		status := component.GetStatus()
		components[id] = model.HealthStatus{
			Status:    status,
			Timestamp: now,
			Message:   component.Name() + " status: " + string(status),
		}
	}

	details := make(map[string]any, len(h.details)+len(h.metrics))
	maps.Copy(details, h.metrics)
	providers := maps.Clone(h.details)
	h.mutex.RUnlock()

	// providers may take other locks, so they run outside ours
	for name, fn := range providers {
		details[name] = fn()
	}

	statusCounts := make(map[model.ComponentStatus]int)
	for _, health := range components {
		statusCounts[health.Status]++
	}

	systemStatus := model.StatusRunning
	var statusMessage string

	switch {
	case statusCounts[model.StatusError] > 0:
		systemStatus = model.StatusError
		statusMessage = fmt.Sprintf("System has errors: %d components in ERROR state", statusCounts[model.StatusError])
	case statusCounts[model.StatusStopped] > 0 && statusCounts[model.StatusStopped] == len(components):
		systemStatus = model.StatusStopped
		statusMessage = "System is stopped"
	case statusCounts[model.StatusRunning] == 0:
		systemStatus = model.StatusUninitialized
		statusMessage = "System is initializing"
	case statusCounts[model.StatusRunning] < len(components):
		statusMessage = fmt.Sprintf("System is partially running: %d of %d components running", statusCounts[model.StatusRunning], len(components))
	default:
		statusMessage = "System is healthy: all components running"
	}

	return model.HealthStatus{
		Status:     systemStatus,
		Timestamp:  now,
		Message:    statusMessage,
		Components: components,
		Details:    details,
	}
}

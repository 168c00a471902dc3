package core

import (
	"sync"

	"github.com/sliink/dataprocessor/internal/model"
)

// Component is a long-lived part of the system whose status is reported by
// the health monitor
type Component interface {
	// ID returns the component's unique identifier
	ID() string

	// Name returns the component's human-readable name
	Name() string

	// GetStatus returns the current component status
	GetStatus() model.ComponentStatus
}

// BaseComponent provides identity and status tracking for components
type BaseComponent struct {
	id       string
	name     string
	statusMu sync.RWMutex
	status   model.ComponentStatus
}

// NewBaseComponent creates a new base component
func NewBaseComponent(id, name string) BaseComponent {
	return BaseComponent{
		id:     id,
		name:   name,
		status: model.StatusUninitialized,
	}
}

// ID returns the component's unique identifier
func (c *BaseComponent) ID() string {
	return c.id
}

// Name returns the component's human-readable name
func (c *BaseComponent) Name() string {
	return c.name
}

// GetStatus returns the current component status
func (c *BaseComponent) GetStatus() model.ComponentStatus {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

// SetStatus updates the component status
func (c *BaseComponent) SetStatus(status model.ComponentStatus) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.status = status
}

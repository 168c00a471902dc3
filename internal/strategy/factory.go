package strategy

import (
	"fmt"
	"sync"

	"github.com/sliink/dataprocessor/internal/model"
)

// Creator builds a strategy around an adapter
type Creator func(adapter model.StorageAdapter) model.Strategy

// Selector maps a processing mode to a freshly built strategy
type Selector struct {
	mu       sync.RWMutex
	creators map[model.ProcessingMode]Creator
	order    []model.ProcessingMode
}

// NewSelector creates a selector with the four standard strategies registered
func NewSelector() *Selector {
	s := &Selector{creators: make(map[model.ProcessingMode]Creator)}
	s.Register(model.ModeValidation, func(a model.StorageAdapter) model.Strategy { return NewValidation(a) })
	s.Register(model.ModeTransformation, func(a model.StorageAdapter) model.Strategy { return NewTransformation(a) })
	s.Register(model.ModeEnrichment, func(a model.StorageAdapter) model.Strategy { return NewEnrichment(a) })
	s.Register(model.ModeAggregation, func(a model.StorageAdapter) model.Strategy { return NewAggregation(a) })
	return s
}

// Register installs or replaces the creator for mode
func (s *Selector) Register(mode model.ProcessingMode, creator Creator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.creators[mode]; !exists {
		s.order = append(s.order, mode)
	}
	s.creators[mode] = creator
}

// Build returns a new strategy for mode wrapping adapter
func (s *Selector) Build(mode model.ProcessingMode, adapter model.StorageAdapter) (model.Strategy, error) {
	s.mu.RLock()
	creator, exists := s.creators[mode]
	s.mu.RUnlock()

	if !exists {
		return nil, &model.UnknownModeError{Mode: mode}
	}
	if adapter == nil {
		return nil, fmt.Errorf("strategy %s requires a storage adapter", mode)
	}
	return creator(adapter), nil
}

// Describe returns the description of the strategy registered for mode
func (s *Selector) Describe(mode model.ProcessingMode) (string, error) {
	s.mu.RLock()
	creator, exists := s.creators[mode]
	s.mu.RUnlock()

	if !exists {
		return "", &model.UnknownModeError{Mode: mode}
	}
	// describing never touches the adapter
	return creator(nil).Describe(), nil
}

// SupportedModes returns the registered modes in registration order
func (s *Selector) SupportedModes() []model.ProcessingMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ProcessingMode(nil), s.order...)
}

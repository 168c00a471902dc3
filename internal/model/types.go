package model

import "time"

// ComponentStatus represents the current status of a component
type ComponentStatus string

const (
	// StatusUninitialized indicates the component has not been initialized
	StatusUninitialized ComponentStatus = "UNINITIALIZED"
	// StatusRunning indicates the component is currently running
	StatusRunning ComponentStatus = "RUNNING"
	// StatusStopped indicates the component has been stopped
	StatusStopped ComponentStatus = "STOPPED"
	// StatusError indicates the component is in an error state
	StatusError ComponentStatus = "ERROR"
)

// ProcessingMode selects the strategy a pipeline runs
type ProcessingMode string

const (
	// ModeValidation validates input against the backend and saves it
	ModeValidation ProcessingMode = "validation"
	// ModeTransformation normalizes input and saves the derived record
	ModeTransformation ProcessingMode = "transformation"
	// ModeEnrichment joins input with a stored record of the same id
	ModeEnrichment ProcessingMode = "enrichment"
	// ModeAggregation summarizes input together with every stored record
	ModeAggregation ProcessingMode = "aggregation"
)

// SupportedModes returns every processing mode in display order
func SupportedModes() []ProcessingMode {
	return []ProcessingMode{ModeValidation, ModeTransformation, ModeEnrichment, ModeAggregation}
}

// Valid reports whether m is a known processing mode
func (m ProcessingMode) Valid() bool {
	for _, known := range SupportedModes() {
		if m == known {
			return true
		}
	}
	return false
}

// BackendType identifies a storage backend variant
type BackendType string

const (
	// BackendPostgres is the relational-style backend
	BackendPostgres BackendType = "postgresql"
	// BackendMongo is the document-style backend
	BackendMongo BackendType = "mongodb"
	// BackendRedis is the cache-style backend
	BackendRedis BackendType = "redis"
)

// SupportedBackends returns every backend type in display order
func SupportedBackends() []BackendType {
	return []BackendType{BackendPostgres, BackendMongo, BackendRedis}
}

// Valid reports whether b is a known backend type
func (b BackendType) Valid() bool {
	for _, known := range SupportedBackends() {
		if b == known {
			return true
		}
	}
	return false
}

// EventKind represents the type of lifecycle event
type EventKind string

const (
	// EventStart is published before a strategy runs
	EventStart EventKind = "start"
	// EventComplete is published after a strategy returns a result
	EventComplete EventKind = "complete"
	// EventError is published when a strategy faults unexpectedly
	EventError EventKind = "error"
	// EventConfigChange is published after a successful reconfiguration
	EventConfigChange EventKind = "config_change"
)

// PipelineState is the orchestrator's lifecycle state
type PipelineState string

const (
	// StateUnconfigured means no adapter/strategy pair has been built yet
	StateUnconfigured PipelineState = "UNCONFIGURED"
	// StateConfigured means a consistent adapter/strategy pair is in place
	StateConfigured PipelineState = "CONFIGURED"
)

// PipelineConfiguration is the orchestrator's current selection
type PipelineConfiguration struct {
	Mode    ProcessingMode `json:"mode" yaml:"mode"`
	Backend BackendType    `json:"backend" yaml:"backend"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// DefaultConfiguration returns the configuration a new pipeline starts with
func DefaultConfiguration() PipelineConfiguration {
	return PipelineConfiguration{
		Mode:    ModeValidation,
		Backend: BackendPostgres,
	}
}

// Clone returns a copy that shares no mutable state with c
func (c PipelineConfiguration) Clone() PipelineConfiguration {
	out := PipelineConfiguration{Mode: c.Mode, Backend: c.Backend}
	if c.Options != nil {
		out.Options = Record(c.Options).Clone()
	}
	return out
}

// ResultMetadata describes how a result was produced
type ResultMetadata struct {
	Mode          ProcessingMode `json:"mode"`
	Backend       BackendType    `json:"backend"`
	Timestamp     time.Time      `json:"timestamp"`
	ElapsedMillis int64          `json:"elapsedMillis"`
}

// ProcessingResult is the outcome of a single process call
type ProcessingResult struct {
	Success  bool           `json:"success"`
	Data     Record         `json:"data"`
	Metadata ResultMetadata `json:"metadata"`
	Errors   []string       `json:"errors"`
}

// ProcessingEvent is a lifecycle notification delivered to observers
type ProcessingEvent struct {
	ID        string         `json:"id"`
	Kind      EventKind      `json:"kind"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   any            `json:"payload"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// HealthStatus represents the health status of the system or a component
type HealthStatus struct {
	Status     ComponentStatus         `json:"status"`
	Timestamp  time.Time               `json:"timestamp"`
	Message    string                  `json:"message,omitempty"`
	Details    map[string]any          `json:"details,omitempty"`
	Components map[string]HealthStatus `json:"components,omitempty"`
}

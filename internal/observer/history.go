// Package observer holds the observers the pipeline notifies by default.
package observer

import (
	"sync"
	"time"

	"github.com/sliink/dataprocessor/internal/model"
)

// DefaultHistoryCapacity is used when a non-positive capacity is requested
const DefaultHistoryCapacity = 100

// HistoryStatus summarizes the history buffer
type HistoryStatus struct {
	Capacity    int       `json:"capacity"`
	Size        int       `json:"size"`
	TotalEvents int       `json:"totalEvents"`
	Dropped     int       `json:"dropped"`
	LastUpdate  time.Time `json:"lastUpdate"`
}

// History keeps the most recent events in arrival order, dropping the oldest
// once capacity is reached
type History struct {
	events   []model.ProcessingEvent
	capacity int
	status   HistoryStatus
	mutex    sync.RWMutex
}

// NewHistory creates a history buffer
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		events:   make([]model.ProcessingEvent, 0, capacity),
		capacity: capacity,
		status:   HistoryStatus{Capacity: capacity},
	}
}

// Notify records the event
func (h *History) Notify(event model.ProcessingEvent) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if len(h.events) >= h.capacity {
		copy(h.events, h.events[1:])
		h.events = h.events[:len(h.events)-1]
		h.status.Dropped++
	}
	h.events = append(h.events, event)

	h.status.Size = len(h.events)
	h.status.TotalEvents++
	h.status.LastUpdate = time.Now().UTC()
}

// Events returns up to limit of the most recent events, oldest first.
// A non-positive limit returns everything held.
func (h *History) Events(limit int) []model.ProcessingEvent {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	start := 0
	if limit > 0 && limit < len(h.events) {
		start = len(h.events) - limit
	}
	out := make([]model.ProcessingEvent, len(h.events)-start)
	copy(out, h.events[start:])
	return out
}

// Filter returns the held events of the given kind, oldest first
func (h *History) Filter(kind model.EventKind) []model.ProcessingEvent {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var out []model.ProcessingEvent
	for _, event := range h.events {
		if event.Kind == kind {
			out = append(out, event)
		}
	}
	return out
}

// Clear drops every held event
func (h *History) Clear() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.events = h.events[:0]
	h.status.Size = 0
	h.status.LastUpdate = time.Now().UTC()
}

// Status returns the current buffer status
func (h *History) Status() HistoryStatus {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.status
}

package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/sliink/dataprocessor/internal/model"
	"github.com/sliink/dataprocessor/pkg/logger"
)

// MakeEvent creates a new event stamped with the current time and a unique ID
func MakeEvent(kind model.EventKind, payload any, metadata map[string]any) model.ProcessingEvent {
	return model.ProcessingEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
		Metadata:  metadata,
	}
}

type subscription struct {
	listenerID string
	observer   model.Observer
}

// EventNotifier delivers pipeline events to observers in subscription order
type EventNotifier struct {
	subscribers []subscription
	mutex       sync.RWMutex
	BaseComponent
}

// NewEventNotifier creates a new event notifier
func NewEventNotifier() *EventNotifier {
	n := &EventNotifier{
		BaseComponent: NewBaseComponent("event_notifier", "Event Notifier"),
	}
	n.SetStatus(model.StatusRunning)
	return n
}

// Subscribe registers an observer under listenerID. Subscribing an existing
// listenerID replaces its observer without changing its position.
func (n *EventNotifier) Subscribe(listenerID string, observer model.Observer) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	for i := range n.subscribers {
		if n.subscribers[i].listenerID == listenerID {
			n.subscribers[i].observer = observer
			return
		}
	}
	n.subscribers = append(n.subscribers, subscription{listenerID: listenerID, observer: observer})
}

// Unsubscribe removes the observer registered under listenerID
func (n *EventNotifier) Unsubscribe(listenerID string) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	for i := range n.subscribers {
		if n.subscribers[i].listenerID == listenerID {
			n.subscribers = append(n.subscribers[:i:i], n.subscribers[i+1:]...)
			return
		}
	}
}

// Observers returns the registered listener IDs in delivery order
func (n *EventNotifier) Observers() []string {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	ids := make([]string, len(n.subscribers))
	for i, sub := range n.subscribers {
		ids[i] = sub.listenerID
	}
	return ids
}

// Publish delivers event to every observer synchronously. An observer that
// panics does not stop delivery to the rest; its fault is returned.
func (n *EventNotifier) Publish(event model.ProcessingEvent) error {
	n.mutex.RLock()
	snapshot := make([]subscription, len(n.subscribers))
	copy(snapshot, n.subscribers)
	n.mutex.RUnlock()

	var faults error
	for _, sub := range snapshot {
		if err := deliver(sub, event); err != nil {
			logger.Get().Errorw("observer failed", "component", n.ID(), "listener", sub.listenerID, "kind", event.Kind, "error", err)
			faults = multierr.Append(faults, err)
		}
	}
	return faults
}

func deliver(sub subscription, event model.ProcessingEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			err = &model.ObserverFault{ListenerID: sub.listenerID, Kind: event.Kind, Cause: cause}
		}
	}()
	sub.observer.Notify(event)
	return nil
}

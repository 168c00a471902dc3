package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/sliink/dataprocessor/internal/model"
)

// recordingObserver keeps every event it receives
type recordingObserver struct {
	mu     sync.Mutex
	events []model.ProcessingEvent
}

func (r *recordingObserver) Notify(event model.ProcessingEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingObserver) kinds() []model.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]model.EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (r *recordingObserver) ofKind(kind model.EventKind) []model.ProcessingEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProcessingEvent
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestNewEventNotifier(t *testing.T) {
	notifier := NewEventNotifier()

	assert.Equal(t, "event_notifier", notifier.ID())
	assert.Equal(t, "Event Notifier", notifier.Name())
	assert.Equal(t, model.StatusRunning, notifier.GetStatus())
	assert.Empty(t, notifier.Observers())
}

func TestMakeEvent(t *testing.T) {
	a := MakeEvent(model.EventStart, "payload", map[string]any{"mode": "validation"})
	b := MakeEvent(model.EventStart, "payload", nil)

	assert.Equal(t, model.EventStart, a.Kind)
	assert.Equal(t, "payload", a.Payload)
	assert.Equal(t, "validation", a.Metadata["mode"])
	assert.False(t, a.Timestamp.IsZero())
	assert.Len(t, a.ID, 36)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestEventNotifierSubscriptions(t *testing.T) {
	t.Run("Delivers in subscription order", func(t *testing.T) {
		notifier := NewEventNotifier()
		var order []string
		for _, id := range []string{"a", "b", "c"} {
			id := id
			notifier.Subscribe(id, model.ObserverFunc(func(model.ProcessingEvent) { order = append(order, id) }))
		}

		require.NoError(t, notifier.Publish(MakeEvent(model.EventStart, nil, nil)))
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("Re-subscribing replaces in place", func(t *testing.T) {
		notifier := NewEventNotifier()
		first, second := &recordingObserver{}, &recordingObserver{}
		notifier.Subscribe("x", first)
		notifier.Subscribe("y", &recordingObserver{})
		notifier.Subscribe("x", second)

		require.NoError(t, notifier.Publish(MakeEvent(model.EventComplete, nil, nil)))
		assert.Equal(t, []string{"x", "y"}, notifier.Observers())
		assert.Empty(t, first.events)
		assert.Len(t, second.events, 1)
	})

	t.Run("Unsubscribe stops delivery and ignores unknown IDs", func(t *testing.T) {
		notifier := NewEventNotifier()
		observer := &recordingObserver{}
		notifier.Subscribe("x", observer)

		notifier.Unsubscribe("missing")
		notifier.Unsubscribe("x")
		require.NoError(t, notifier.Publish(MakeEvent(model.EventStart, nil, nil)))

		assert.Empty(t, observer.events)
		assert.Empty(t, notifier.Observers())
	})
}

func TestEventNotifierFaults(t *testing.T) {
	notifier := NewEventNotifier()
	after := &recordingObserver{}
	notifier.Subscribe("panics", model.ObserverFunc(func(model.ProcessingEvent) { panic("boom") }))
	notifier.Subscribe("panics-error", model.ObserverFunc(func(model.ProcessingEvent) { panic(errors.New("bang")) }))
	notifier.Subscribe("after", after)

	err := notifier.Publish(MakeEvent(model.EventComplete, nil, nil))

	t.Run("Keeps delivering after a panic", func(t *testing.T) {
		assert.Len(t, after.events, 1)
	})

	t.Run("Returns every fault", func(t *testing.T) {
		faults := multierr.Errors(err)
		require.Len(t, faults, 2)

		var fault *model.ObserverFault
		require.True(t, errors.As(faults[0], &fault))
		assert.Equal(t, "panics", fault.ListenerID)
		assert.Equal(t, model.EventComplete, fault.Kind)
		assert.EqualError(t, fault.Cause, "boom")

		require.True(t, errors.As(faults[1], &fault))
		assert.Equal(t, "panics-error", fault.ListenerID)
		assert.EqualError(t, fault.Cause, "bang")
	})
}

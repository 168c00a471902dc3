package model

import "context"

// StorageAdapter is the uniform capability every backend exposes
type StorageAdapter interface {
	// Connect establishes the backend connection
	Connect(ctx context.Context) error

	// Disconnect releases the backend connection; calling it twice is harmless
	Disconnect(ctx context.Context) error

	// Save persists a copy of record stamped with backend provenance
	Save(ctx context.Context, record Record) (bool, error)

	// Validate runs the backend-flavored shape check on record
	Validate(ctx context.Context, record Record) (bool, error)

	// Query returns copies of every stored record matching all criteria
	Query(ctx context.Context, criteria Record) ([]Record, error)

	// Identify returns the backend's stable name tag
	Identify() BackendType

	// Connected reports whether the adapter currently holds a connection
	Connected() bool
}

// Strategy processes a single unit of input against a storage adapter
type Strategy interface {
	// Process runs the strategy; failures are reported in the result
	Process(ctx context.Context, input any) ProcessingResult

	// Identify returns the strategy's stable name tag
	Identify() string

	// Describe returns a one-line human-readable summary
	Describe() string

	// Mode returns the processing mode the strategy was built for
	Mode() ProcessingMode

	// Adapter returns the storage adapter the strategy wraps
	Adapter() StorageAdapter
}

// Observer receives lifecycle events synchronously
type Observer interface {
	Notify(event ProcessingEvent)
}

// ObserverFunc adapts a plain function to the Observer interface
type ObserverFunc func(event ProcessingEvent)

// Notify calls f(event)
func (f ObserverFunc) Notify(event ProcessingEvent) {
	f(event)
}

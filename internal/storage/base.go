// Package storage holds the mock storage adapters the pipeline runs against.
package storage

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sliink/dataprocessor/internal/model"
	"github.com/sliink/dataprocessor/pkg/logger"
)

// Options tune a mock adapter
type Options struct {
	// ConnectionString is reported for introspection only
	ConnectionString string
	// ConnectLatency simulates the backend handshake
	ConnectLatency time.Duration
}

// DefaultOptions returns the connection string and latency a backend starts with
func DefaultOptions(backend model.BackendType) Options {
	switch backend {
	case model.BackendPostgres:
		return Options{ConnectionString: "postgresql://localhost:5432/dataprocessor", ConnectLatency: 100 * time.Millisecond}
	case model.BackendMongo:
		return Options{ConnectionString: "mongodb://localhost:27017/dataprocessor", ConnectLatency: 150 * time.Millisecond}
	case model.BackendRedis:
		return Options{ConnectionString: "redis://localhost:6379", ConnectLatency: 50 * time.Millisecond}
	default:
		return Options{}
	}
}

// connection tracks the connected flag shared by every variant
type connection struct {
	backend   model.BackendType
	label     string
	opts      Options
	connected atomic.Bool
}

// Identify returns the backend's stable name tag
func (c *connection) Identify() model.BackendType {
	return c.backend
}

// Connected reports whether the adapter currently holds a connection
func (c *connection) Connected() bool {
	return c.connected.Load()
}

// ConnectionString returns the address the adapter pretends to use
func (c *connection) ConnectionString() string {
	return c.opts.ConnectionString
}

// Connect waits out the simulated handshake, honouring ctx
func (c *connection) Connect(ctx context.Context) error {
	if c.opts.ConnectLatency > 0 {
		timer := time.NewTimer(c.opts.ConnectLatency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return &model.StorageError{
				Backend: c.backend,
				Op:      "connect",
				Message: "Failed to connect to " + c.label,
				Cause:   ctx.Err(),
			}
		}
	}

	c.connected.Store(true)
	logger.Get().Infow("Connected to "+c.label, "backend", c.backend, "dsn", c.opts.ConnectionString)
	return nil
}

// Disconnect drops the connection; calling it on a closed adapter is a no-op
func (c *connection) Disconnect(_ context.Context) error {
	if c.connected.Swap(false) {
		logger.Get().Infow("Disconnected from "+c.label, "backend", c.backend)
	}
	return nil
}

func (c *connection) ensureConnected(op string) error {
	if !c.connected.Load() {
		return model.NewNotConnectedError(c.backend, op)
	}
	return nil
}

func queryList(items []model.Record, criteria model.Record) []model.Record {
	results := make([]model.Record, 0, len(items))
	for _, item := range items {
		if len(criteria) == 0 || item.Matches(criteria) {
			results = append(results, item.Clone())
		}
	}
	return results
}

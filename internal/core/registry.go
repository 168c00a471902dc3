package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"

	"github.com/sliink/dataprocessor/internal/model"
	"github.com/sliink/dataprocessor/internal/storage"
	"github.com/sliink/dataprocessor/pkg/logger"
)

const defaultConnectTimeout = 30 * time.Second

// AdapterConstructor creates a disconnected adapter
type AdapterConstructor func(opts storage.Options) model.StorageAdapter

// AdapterRegistry creates, connects and caches one adapter per backend type
type AdapterRegistry struct {
	constructors   map[model.BackendType]AdapterConstructor
	options        map[model.BackendType]storage.Options
	order          []model.BackendType
	instances      map[model.BackendType]model.StorageAdapter
	// generation changes on every ShutdownAll so in-flight connects can tell
	generation     uint64
	connectTimeout time.Duration
	group          singleflight.Group
	mutex          sync.RWMutex
	BaseComponent
}

// NewAdapterRegistry creates a registry with the three mock backends.
// overrides replace the default options of the named backends.
func NewAdapterRegistry(overrides map[model.BackendType]storage.Options) *AdapterRegistry {
	r := &AdapterRegistry{
		constructors:   make(map[model.BackendType]AdapterConstructor),
		options:        make(map[model.BackendType]storage.Options),
		instances:      make(map[model.BackendType]model.StorageAdapter),
		connectTimeout: defaultConnectTimeout,
		BaseComponent:  NewBaseComponent("adapter_registry", "Adapter Registry"),
	}

	r.RegisterBackend(model.BackendPostgres, func(o storage.Options) model.StorageAdapter { return storage.NewPostgresAdapter(o) })
	r.RegisterBackend(model.BackendMongo, func(o storage.Options) model.StorageAdapter { return storage.NewMongoAdapter(o) })
	r.RegisterBackend(model.BackendRedis, func(o storage.Options) model.StorageAdapter { return storage.NewRedisAdapter(o) })

	for backend, opts := range overrides {
		r.options[backend] = opts
	}

	r.SetStatus(model.StatusRunning)
	return r
}

// RegisterBackend installs or replaces the constructor for backend
func (r *AdapterRegistry) RegisterBackend(backend model.BackendType, constructor AdapterConstructor) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.constructors[backend]; !exists {
		r.order = append(r.order, backend)
	}
	r.constructors[backend] = constructor
	if _, ok := r.options[backend]; !ok {
		r.options[backend] = storage.DefaultOptions(backend)
	}
}

// Resolve returns the cached adapter for backend, creating and connecting one
// if needed. Concurrent callers for the same backend share a single connect;
// a caller whose ctx ends stops waiting without aborting the others.
func (r *AdapterRegistry) Resolve(ctx context.Context, backend model.BackendType) (model.StorageAdapter, error) {
	r.mutex.RLock()
	adapter, cached := r.instances[backend]
	constructor, known := r.constructors[backend]
	opts := r.options[backend]
	timeout := r.connectTimeout
	r.mutex.RUnlock()

	if cached {
		return adapter, nil
	}
	if !known {
		return nil, &model.UnknownBackendError{Backend: backend}
	}
	if err := ctx.Err(); err != nil {
		return nil, abandoned(backend, err)
	}

	results := r.group.DoChan(string(backend), func() (any, error) {
		return r.connect(ctx, backend, constructor, opts, timeout)
	})

	select {
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(model.StorageAdapter), nil
	case <-ctx.Done():
		return nil, abandoned(backend, ctx.Err())
	}
}

// connect runs once per in-flight backend. It is detached from the caller's
// cancellation and bounded by the registry's connect timeout instead.
func (r *AdapterRegistry) connect(ctx context.Context, backend model.BackendType, constructor AdapterConstructor, opts storage.Options, timeout time.Duration) (model.StorageAdapter, error) {
	// another caller may have finished between our check and the flight
	r.mutex.RLock()
	existing, ok := r.instances[backend]
	generation := r.generation
	r.mutex.RUnlock()
	if ok {
		return existing, nil
	}

	connectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	created := constructor(opts)
	if err := created.Connect(connectCtx); err != nil {
		logger.Get().Warnw("adapter connect failed", "component", r.ID(), "backend", backend, "error", err)
		return nil, err
	}

	r.mutex.Lock()
	if r.generation != generation {
		r.mutex.Unlock()
		_ = created.Disconnect(connectCtx)
		logger.Get().Infow("discarded adapter connected during shutdown", "component", r.ID(), "backend", backend)
		return nil, &model.StorageError{
			Backend: backend,
			Op:      "connect",
			Message: fmt.Sprintf("Registry shut down while connecting to %s", backend),
		}
	}
	r.instances[backend] = created
	r.mutex.Unlock()

	r.SetStatus(model.StatusRunning)
	return created, nil
}

func abandoned(backend model.BackendType, cause error) error {
	return &model.StorageError{
		Backend: backend,
		Op:      "connect",
		Message: fmt.Sprintf("Stopped waiting for %s connection", backend),
		Cause:   cause,
	}
}

// SetConnectTimeout bounds every later connect attempt
func (r *AdapterRegistry) SetConnectTimeout(timeout time.Duration) {
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.connectTimeout = timeout
}

// Cached returns the live adapter for backend without creating one
func (r *AdapterRegistry) Cached(backend model.BackendType) (model.StorageAdapter, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	adapter, ok := r.instances[backend]
	return adapter, ok
}

// ConnectionStates reports, per cached backend, whether its adapter is connected
func (r *AdapterRegistry) ConnectionStates() map[model.BackendType]bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	states := make(map[model.BackendType]bool, len(r.instances))
	for backend, adapter := range r.instances {
		states[backend] = adapter.Connected()
	}
	return states
}

// SupportedBackends returns the constructible backends in registration order
func (r *AdapterRegistry) SupportedBackends() []model.BackendType {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return append([]model.BackendType(nil), r.order...)
}

// ShutdownAll disconnects every cached adapter and empties the cache
func (r *AdapterRegistry) ShutdownAll(ctx context.Context) error {
	r.mutex.Lock()
	var live []model.StorageAdapter
	for _, backend := range r.order {
		if adapter, ok := r.instances[backend]; ok {
			live = append(live, adapter)
		}
	}
	r.instances = make(map[model.BackendType]model.StorageAdapter)
	r.generation++
	r.mutex.Unlock()

	var errs error
	for _, adapter := range live {
		errs = multierr.Append(errs, adapter.Disconnect(ctx))
	}

	r.SetStatus(model.StatusStopped)
	logger.Get().Infow("adapters shut down", "component", r.ID(), "count", len(live))
	return errs
}

package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliink/dataprocessor/internal/model"
	"github.com/sliink/dataprocessor/internal/storage"
)

// fastOptions removes the simulated connect latency from every backend
func fastOptions() map[model.BackendType]storage.Options {
	return map[model.BackendType]storage.Options{
		model.BackendPostgres: {},
		model.BackendMongo:    {},
		model.BackendRedis:    {},
	}
}

func TestNewAdapterRegistry(t *testing.T) {
	registry := NewAdapterRegistry(fastOptions())

	assert.Equal(t, "adapter_registry", registry.ID())
	assert.Equal(t, "Adapter Registry", registry.Name())
	assert.Equal(t, model.StatusRunning, registry.GetStatus())
	assert.Equal(t, model.SupportedBackends(), registry.SupportedBackends())
}

func TestAdapterRegistryResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns the same connected instance for a backend", func(t *testing.T) {
		registry := NewAdapterRegistry(fastOptions())

		first, err := registry.Resolve(ctx, model.BackendMongo)
		require.NoError(t, err)
		second, err := registry.Resolve(ctx, model.BackendMongo)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.True(t, first.Connected())
		assert.Equal(t, model.BackendMongo, first.Identify())
	})

	t.Run("Returns distinct instances for distinct backends", func(t *testing.T) {
		registry := NewAdapterRegistry(fastOptions())

		pg, err := registry.Resolve(ctx, model.BackendPostgres)
		require.NoError(t, err)
		redis, err := registry.Resolve(ctx, model.BackendRedis)
		require.NoError(t, err)

		assert.NotSame(t, pg, redis)
	})

	t.Run("Rejects unknown backends", func(t *testing.T) {
		registry := NewAdapterRegistry(fastOptions())

		_, err := registry.Resolve(ctx, "cassandra")
		var unknown *model.UnknownBackendError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, "Unknown database type: cassandra", err.Error())
	})

	t.Run("Does not cache an adapter whose connect failed", func(t *testing.T) {
		registry := NewAdapterRegistry(map[model.BackendType]storage.Options{
			model.BackendPostgres: {ConnectLatency: time.Hour},
		})
		registry.SetConnectTimeout(10 * time.Millisecond)

		_, err := registry.Resolve(ctx, model.BackendPostgres)
		var storageErr *model.StorageError
		require.True(t, errors.As(err, &storageErr))
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		_, cached := registry.Cached(model.BackendPostgres)
		assert.False(t, cached)
	})

	t.Run("Returns at once for an already cancelled caller", func(t *testing.T) {
		registry := NewAdapterRegistry(map[model.BackendType]storage.Options{
			model.BackendPostgres: {ConnectLatency: time.Hour},
		})
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := registry.Resolve(cancelled, model.BackendPostgres)
		assert.ErrorIs(t, err, context.Canceled)

		_, cached := registry.Cached(model.BackendPostgres)
		assert.False(t, cached)
	})

	t.Run("A caller that gives up does not fail the others", func(t *testing.T) {
		registry := NewAdapterRegistry(fastOptions())
		var created atomic.Int32
		registry.RegisterBackend(model.BackendMongo, func(storage.Options) model.StorageAdapter {
			created.Add(1)
			return storage.NewMongoAdapter(storage.Options{ConnectLatency: 200 * time.Millisecond})
		})

		short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		leaderErr := make(chan error, 1)
		go func() {
			_, err := registry.Resolve(short, model.BackendMongo)
			leaderErr <- err
		}()
		time.Sleep(5 * time.Millisecond)

		adapter, err := registry.Resolve(ctx, model.BackendMongo)
		require.NoError(t, err)
		assert.True(t, adapter.Connected())
		assert.ErrorIs(t, <-leaderErr, context.DeadlineExceeded)
		assert.Equal(t, int32(1), created.Load())

		cached, ok := registry.Cached(model.BackendMongo)
		require.True(t, ok)
		assert.Same(t, adapter, cached)
	})

	t.Run("Concurrent callers share one instance", func(t *testing.T) {
		registry := NewAdapterRegistry(fastOptions())
		var created atomic.Int32
		registry.RegisterBackend(model.BackendRedis, func(o storage.Options) model.StorageAdapter {
			created.Add(1)
			return storage.NewRedisAdapter(storage.Options{ConnectLatency: 20 * time.Millisecond})
		})

		const callers = 16
		results := make([]model.StorageAdapter, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				adapter, err := registry.Resolve(ctx, model.BackendRedis)
				assert.NoError(t, err)
				results[i] = adapter
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), created.Load())
		for _, adapter := range results {
			assert.Same(t, results[0], adapter)
		}
	})
}

func TestAdapterRegistryShutdownAll(t *testing.T) {
	ctx := context.Background()
	registry := NewAdapterRegistry(fastOptions())

	pg, err := registry.Resolve(ctx, model.BackendPostgres)
	require.NoError(t, err)
	_, err = registry.Resolve(ctx, model.BackendRedis)
	require.NoError(t, err)
	assert.Equal(t, map[model.BackendType]bool{model.BackendPostgres: true, model.BackendRedis: true}, registry.ConnectionStates())

	t.Run("Disconnects and clears every cached adapter", func(t *testing.T) {
		require.NoError(t, registry.ShutdownAll(ctx))

		assert.False(t, pg.Connected())
		assert.Empty(t, registry.ConnectionStates())
		assert.Equal(t, model.StatusStopped, registry.GetStatus())
	})

	t.Run("Is safe to call twice", func(t *testing.T) {
		assert.NoError(t, registry.ShutdownAll(ctx))
	})

	t.Run("Discards an adapter that connects during shutdown", func(t *testing.T) {
		registry := NewAdapterRegistry(fastOptions())
		var slow model.StorageAdapter
		registry.RegisterBackend(model.BackendRedis, func(storage.Options) model.StorageAdapter {
			slow = storage.NewRedisAdapter(storage.Options{ConnectLatency: 100 * time.Millisecond})
			return slow
		})

		resolved := make(chan error, 1)
		go func() {
			_, err := registry.Resolve(ctx, model.BackendRedis)
			resolved <- err
		}()
		time.Sleep(20 * time.Millisecond)

		require.NoError(t, registry.ShutdownAll(ctx))
		err := <-resolved
		var storageErr *model.StorageError
		require.True(t, errors.As(err, &storageErr))
		assert.Equal(t, "Registry shut down while connecting to redis", err.Error())

		_, cached := registry.Cached(model.BackendRedis)
		assert.False(t, cached)
		assert.False(t, slow.Connected())
	})

	t.Run("Resolve afterwards creates a fresh instance", func(t *testing.T) {
		fresh, err := registry.Resolve(ctx, model.BackendPostgres)
		require.NoError(t, err)

		assert.NotSame(t, pg, fresh)
		assert.True(t, fresh.Connected())
		assert.Equal(t, model.StatusRunning, registry.GetStatus())
	})
}

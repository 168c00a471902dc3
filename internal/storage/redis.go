package storage

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/sliink/dataprocessor/internal/model"
)

const cacheTTLSeconds = 3600

// RedisAdapter is a cache-style mock backend storing msgpack-encoded values by key
type RedisAdapter struct {
	connection
	mu    sync.RWMutex
	keys  []string
	cache map[string][]byte
}

// NewRedisAdapter creates a disconnected cache-style adapter
func NewRedisAdapter(opts Options) *RedisAdapter {
	return &RedisAdapter{
		connection: connection{backend: model.BackendRedis, label: "Redis", opts: opts},
		cache:      make(map[string][]byte),
	}
}

// Save stores record under data:<id>, stamped with cachedAt and a ttl
func (a *RedisAdapter) Save(_ context.Context, record model.Record) (bool, error) {
	if err := a.ensureConnected("save"); err != nil {
		return false, err
	}

	now := time.Now().UTC()
	var key string
	if record.HasID() {
		key = fmt.Sprintf("data:%v", record.ID())
	} else {
		key = fmt.Sprintf("data:%d", now.UnixNano())
	}

	value := record.Clone()
	if value == nil {
		value = model.Record{}
	}
	value["cachedAt"] = now
	value["ttl"] = cacheTTLSeconds

	encoded, err := msgpack.Marshal(map[string]any(value))
	if err != nil {
		return false, &model.StorageError{Backend: a.backend, Op: "save", Message: "failed to encode value", Cause: err}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.cache[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.cache[key] = encoded
	return true, nil
}

// Validate accepts any object-shaped value
func (a *RedisAdapter) Validate(_ context.Context, record model.Record) (bool, error) {
	if err := a.ensureConnected("validate"); err != nil {
		return false, err
	}
	return record != nil, nil
}

// Query decodes every cached value and returns those matching criteria
func (a *RedisAdapter) Query(_ context.Context, criteria model.Record) ([]model.Record, error) {
	if err := a.ensureConnected("query"); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()

	results := make([]model.Record, 0, len(a.keys))
	for _, key := range a.keys {
		value, err := decodeValue(a.cache[key])
		if err != nil {
			return nil, &model.StorageError{Backend: a.backend, Op: "query", Message: "failed to decode " + key, Cause: err}
		}
		if len(criteria) == 0 || value.Matches(criteria) {
			results = append(results, value)
		}
	}
	return results, nil
}

// Keys returns the cache keys in insertion order
func (a *RedisAdapter) Keys() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.keys...)
}

func decodeValue(b []byte) (model.Record, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)

	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return model.Record(out), nil
}

// Package pipelines keeps model handles alive across requests. Each handle
// is created on first use, shared by every caller that asks for the same key
// and closed once it has been invalidated and nobody holds it anymore.
package pipelines

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Loader creates the value for a key
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

type entry[V any] struct {
	value   V
	refs    int
	retired bool
}

// Registry is a set of lazily initialised, reference counted singletons
type Registry[K comparable, V any] struct {
	name    string
	load    Loader[K, V]
	mu      sync.Mutex
	entries map[K]*entry[V]
	group   singleflight.Group
}

// NewRegistry creates a registry. name is used in logs only.
func NewRegistry[K comparable, V any](name string, load Loader[K, V]) *Registry[K, V] {
	return &Registry[K, V]{
		name:    name,
		load:    load,
		entries: make(map[K]*entry[V]),
	}
}

// Acquire returns the shared value for key, loading it if needed. The
// release func must be called exactly once when the caller is done.
func (r *Registry[K, V]) Acquire(ctx context.Context, key K) (V, func(), error) {
	return r.AcquireWith(ctx, key, r.load)
}

// AcquireWith is Acquire with a loader for this call. It is used when the
// key alone cannot build the value.
func (r *Registry[K, V]) AcquireWith(ctx context.Context, key K, load Loader[K, V]) (V, func(), error) {
	r.mu.Lock()
	if e, ok := r.entries[key]; ok {
		e.refs++
		r.mu.Unlock()
		return e.value, r.releaser(key, e), nil
	}
	r.mu.Unlock()

	// Concurrent first requests for a key share one load
	_, err, _ := r.group.Do(fmt.Sprint(key), func() (any, error) {
		r.mu.Lock()
		_, ok := r.entries[key]
		r.mu.Unlock()
		if ok {
			return nil, nil
		}

		value, err := load(ctx, key)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.entries[key] = &entry[V]{value: value}
		r.mu.Unlock()
		log.Printf("[PIPELINES]: Loaded %s %v", r.name, key)
		return nil, nil
	})
	if err != nil {
		var zero V
		return zero, nil, err
	}

	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		// Invalidated between load and acquire
		r.mu.Unlock()
		return r.AcquireWith(ctx, key, load)
	}
	e.refs++
	r.mu.Unlock()
	return e.value, r.releaser(key, e), nil
}

func (r *Registry[K, V]) releaser(key K, e *entry[V]) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			e.refs--
			closeNow := e.retired && e.refs == 0
			r.mu.Unlock()

			if closeNow {
				r.close(key, e)
			}
		})
	}
}

// Invalidate drops key so the next Acquire loads a fresh value. A value still
// in use is closed when its last holder releases it.
func (r *Registry[K, V]) Invalidate(key K) {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.entries, key)
	e.retired = true
	closeNow := e.refs == 0
	r.mu.Unlock()

	if closeNow {
		r.close(key, e)
	}
}

// Reset invalidates every key
func (r *Registry[K, V]) Reset() {
	r.mu.Lock()
	keys := make([]K, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	r.mu.Unlock()

	for _, key := range keys {
		r.Invalidate(key)
	}
}

// Refs returns the number of outstanding holders of key, or -1 if key is not loaded
func (r *Registry[K, V]) Refs(key K) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[key]; ok {
		return e.refs
	}
	return -1
}

// Len returns the number of loaded keys
func (r *Registry[K, V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry[K, V]) close(key K, e *entry[V]) {
	closer, ok := any(e.value).(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		log.Printf("[PIPELINES]: Failed to close %s %v: %v", r.name, key, err)
	}
}

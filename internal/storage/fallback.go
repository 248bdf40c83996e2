package storage

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
)

// Fallback wraps the durable remote store and degrades to the process-local
// memory store when the remote becomes unreachable. Once degraded it stays on
// the memory store for the rest of the process lifetime; data written in that
// window does not survive a restart. That limitation is documented, not a bug.
type Fallback struct {
	remote   Store
	memory   *MemoryStore
	degraded atomic.Bool
}

// NewFallback builds the degrading wrapper. The memory store is shared
// process-wide state injected at construction.
func NewFallback(remote Store, memory *MemoryStore) *Fallback {
	return &Fallback{remote: remote, memory: memory}
}

// Degraded reports whether the wrapper has switched to the memory store.
func (f *Fallback) Degraded() bool {
	return f.degraded.Load()
}

func (f *Fallback) degrade(op string, err error) {
	if f.degraded.CompareAndSwap(false, true) {
		log.Printf("[warn] operation=%s message=remote store unavailable, degrading to in-memory store error=%v", op, err)
	}
}

// transient reports whether err is a transport-level failure rather than a
// normal store outcome like ErrKeyNotFound.
func transient(err error) bool {
	return err != nil && !errors.Is(err, ErrKeyNotFound)
}

func (f *Fallback) Get(ctx context.Context, key string) ([]byte, error) {
	if !f.degraded.Load() {
		value, err := f.remote.Get(ctx, key)
		if !transient(err) {
			return value, err
		}
		f.degrade("get", err)
	}
	return f.memory.Get(ctx, key)
}

func (f *Fallback) Put(ctx context.Context, key string, value []byte) error {
	if !f.degraded.Load() {
		err := f.remote.Put(ctx, key, value)
		if err == nil {
			return nil
		}
		f.degrade("put", err)
	}
	return f.memory.Put(ctx, key, value)
}

func (f *Fallback) Delete(ctx context.Context, key string) error {
	if !f.degraded.Load() {
		err := f.remote.Delete(ctx, key)
		if err == nil {
			return nil
		}
		f.degrade("delete", err)
	}
	return f.memory.Delete(ctx, key)
}

func (f *Fallback) List(ctx context.Context, prefix string) ([]string, error) {
	if !f.degraded.Load() {
		keys, err := f.remote.List(ctx, prefix)
		if err == nil {
			return keys, nil
		}
		f.degrade("list", err)
	}
	return f.memory.List(ctx, prefix)
}

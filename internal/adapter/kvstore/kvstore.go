// Package kvstore keeps small client-side values between sessions.
//
// A missing or corrupt value is never fatal: [Value.Load] falls back to the
// default.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.KVStore = (*Memory)(nil)

// A Memory is the in-process fallback store.
type Memory struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string][]byte)}
}

func (s *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return slices.Clone(v), ok, nil
}

func (s *Memory) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = slices.Clone(value)
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *Memory) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.m))
}

// A Value is a typed JSON value stored under a fixed key.
type Value[T any] struct {
	store port.KVStore
	key   string
	def   T
}

func NewValue[T any](store port.KVStore, key string, def T) Value[T] {
	return Value[T]{store: store, key: key, def: def}
}

func (v Value[T]) Key() string {
	return v.key
}

// Load returns the stored value or the default when the value is absent,
// unreadable or malformed.
func (v Value[T]) Load(ctx context.Context) T {
	const op = "Value.Load"
	log := slog.With("op", op, "key", v.key)

	data, ok, err := v.store.Get(ctx, v.key)
	if err != nil {
		log.Error("failed to read value", "err", err)
		return v.def
	}
	if !ok || len(data) == 0 {
		return v.def
	}

	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		log.Warn("stored value is malformed, using default", "err", err)
		return v.def
	}
	return out
}

func (v Value[T]) Store(ctx context.Context, val T) error {
	const op = "Value.Store"

	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := v.store.Set(ctx, v.key, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

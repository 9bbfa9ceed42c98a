// Package kv persists opaque JSON snapshots under stable keys. Every write
// replaces the whole value stored for a key.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Adapter.Get when no record exists for a key.
var ErrNotFound = errors.New("kv: key not found")

// Adapter is a durable key-value store holding one JSON document per key.
type Adapter interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Load decodes the value stored under key. Missing keys, driver failures and
// undecodable payloads all yield fallback.
func Load[T any](ctx context.Context, a Adapter, key string, fallback T) T {
	if a == nil {
		return fallback
	}
	raw, err := a.Get(ctx, key)
	if err != nil || len(raw) == 0 {
		return fallback
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return fallback
	}
	return out
}

// Save encodes value and overwrites the record stored under key.
func Save[T any](ctx context.Context, a Adapter, key string, value T) error {
	if a == nil {
		return errors.New("kv: adapter not configured")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}
	if err := a.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("kv: put %s: %w", key, err)
	}
	return nil
}

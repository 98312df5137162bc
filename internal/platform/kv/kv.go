// Package kv provides the key-value backends the dataset is persisted to.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when a key has never been saved.
var ErrNotFound = errors.New("kv: key not found")

// Backend is the minimal storage contract: load and save opaque values by key.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// BatchSaver is implemented by backends that can write several keys atomically.
type BatchSaver interface {
	SaveMany(ctx context.Context, values map[string][]byte) error
}

// Closer is implemented by backends owning a connection.
type Closer interface {
	Close() error
}

// Prefixed namespaces every key of an underlying backend.
type Prefixed struct {
	Prefix  string
	Backend Backend
}

// Load reads prefix+key.
func (p Prefixed) Load(ctx context.Context, key string) ([]byte, error) {
	return p.Backend.Load(ctx, p.Prefix+key)
}

// Save writes prefix+key.
func (p Prefixed) Save(ctx context.Context, key string, value []byte) error {
	return p.Backend.Save(ctx, p.Prefix+key, value)
}

// SaveMany forwards to the underlying backend when it supports batches.
func (p Prefixed) SaveMany(ctx context.Context, values map[string][]byte) error {
	prefixed := make(map[string][]byte, len(values))
	for k, v := range values {
		prefixed[p.Prefix+k] = v
	}
	if batch, ok := p.Backend.(BatchSaver); ok {
		return batch.SaveMany(ctx, prefixed)
	}
	for k, v := range prefixed {
		if err := p.Backend.Save(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying backend if it owns resources.
func (p Prefixed) Close() error {
	if c, ok := p.Backend.(Closer); ok {
		return c.Close()
	}
	return nil
}

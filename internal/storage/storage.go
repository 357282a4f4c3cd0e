// Package storage defines the durable key/value contract the local store
// persists through, plus the in-memory and file backends.
//
// Every backend stores opaque documents under string keys. The local store
// writes whole documents on every mutation, so backends only need atomic
// single-key replacement.
package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed backend.
var ErrClosed = errors.New("storage backend closed")

// Backend is a durable key/value store.
type Backend interface {
	// Get returns the document under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set replaces the document under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Watcher is implemented by backends that can report writes made by other
// processes sharing the same storage.
type Watcher interface {
	// Watch blocks until ctx is done, calling onChange with the key of every
	// document that changed on disk.
	Watch(ctx context.Context, onChange func(key string)) error
}

// Package archive persists hub traffic to pluggable key-value storage. The
// Recorder implements hub.Recorder and writes each message and thread
// snapshot as a JSON document.
package archive

import "context"

// Store translates between external storage and a flat key-value
// namespace. Keys are /-separated paths. Implementations are stateless:
// they perform I/O on each call without caching.
type Store interface {
	// List returns every key starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Load retrieves entries for the specified keys, in order.
	Load(ctx context.Context, keys ...string) ([]Entry, error)
	// Save persists entries, creating or overwriting as needed.
	Save(ctx context.Context, entries ...Entry) error
	// Delete removes entries. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Entry is a stored document.
type Entry struct {
	Key   string
	Value []byte
}

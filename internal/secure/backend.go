// Package secure provides a platform-agnostic façade over secure
// key-value storage. The façade resolves per-call platform options,
// delegates every operation to a swappable Backend, and fans out
// change notifications to registered per-key listeners. It holds no
// secrets itself; persistence and encryption are the backend's job.
package secure

import "context"

// Backend is the capability interface the façade delegates to. Errors
// returned by a backend pass through the façade unchanged; the façade
// performs no interpretation or retry.
type Backend interface {
	// Write stores value under key.
	Write(ctx context.Context, key, value string, opts Options) error

	// Read returns the value for key, or nil when key is absent.
	Read(ctx context.Context, key string, opts Options) (*string, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string, opts Options) error

	// ContainsKey reports whether key holds a value.
	ContainsKey(ctx context.Context, key string, opts Options) (bool, error)

	// ReadAll returns every stored key/value pair.
	ReadAll(ctx context.Context, opts Options) (map[string]string, error)

	// DeleteAll removes every stored key.
	DeleteAll(ctx context.Context, opts Options) error
}

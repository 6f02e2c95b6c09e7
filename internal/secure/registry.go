package secure

import (
	"reflect"
	"sync"
)

// Listener receives the post-mutation value for a key, nil on delete.
type Listener func(value *string)

// Registry maps storage keys to ordered listener sequences. Insertion
// order is preserved and duplicates are allowed. The registry is purely
// an in-memory observation mechanism; it is never persisted and is
// decoupled from the backing store's change history.
type Registry struct {
	mu        sync.Mutex
	listeners map[string][]Listener
}

func NewRegistry() *Registry {
	return &Registry{listeners: make(map[string][]Listener)}
}

// Register appends fn to key's listener sequence. No de-duplication.
func (r *Registry) Register(key string, fn Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[key] = append(r.listeners[key], fn)
}

// Unregister removes the first registration of fn for key, matched by
// function identity. No-op if fn is not registered for key.
func (r *Registry) Unregister(key string, fn Listener) {
	target := reflect.ValueOf(fn).Pointer()

	r.mu.Lock()
	defer r.mu.Unlock()
	seq := r.listeners[key]
	for i, l := range seq {
		if reflect.ValueOf(l).Pointer() == target {
			r.listeners[key] = append(seq[:i:i], seq[i+1:]...)
			return
		}
	}
}

// UnregisterKey removes every listener registered for key.
func (r *Registry) UnregisterKey(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, key)
}

// UnregisterAll clears the entire registry.
func (r *Registry) UnregisterAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = make(map[string][]Listener)
}

// snapshot returns a copy of key's listener sequence so notification
// runs outside the lock.
func (r *Registry) snapshot(key string) []Listener {
	r.mu.Lock()
	defer r.mu.Unlock()
	seq := r.listeners[key]
	if len(seq) == 0 {
		return nil
	}
	cp := make([]Listener, len(seq))
	copy(cp, seq)
	return cp
}

// snapshotAll returns every registered listener across all keys,
// preserving registration order within each key.
func (r *Registry) snapshotAll() []Listener {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []Listener
	for _, seq := range r.listeners {
		all = append(all, seq...)
	}
	return all
}

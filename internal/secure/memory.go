package secure

import (
	"context"
	"sync"
)

// MemoryBackend keeps secrets in process memory, partitioned by the
// namespace option. Data is lost on restart. Safe for concurrent use.
// Tests inject a seeded MemoryBackend instead of a platform store.
type MemoryBackend struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]string
}

// NewMemoryBackend returns a MemoryBackend whose default namespace is
// seeded with a copy of the given pairs. A nil seed is fine.
func NewMemoryBackend(seed map[string]string) *MemoryBackend {
	ns := make(map[string]string, len(seed))
	for k, v := range seed {
		ns[k] = v
	}
	return &MemoryBackend{
		namespaces: map[string]map[string]string{DefaultNamespace: ns},
	}
}

func (m *MemoryBackend) Write(_ context.Context, key, value string, opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns := opts.Namespace()
	if m.namespaces[ns] == nil {
		m.namespaces[ns] = make(map[string]string)
	}
	m.namespaces[ns][key] = value
	return nil
}

func (m *MemoryBackend) Read(_ context.Context, key string, opts Options) (*string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.namespaces[opts.Namespace()][key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string, opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.namespaces[opts.Namespace()], key)
	return nil
}

func (m *MemoryBackend) ContainsKey(_ context.Context, key string, opts Options) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.namespaces[opts.Namespace()][key]
	return ok, nil
}

func (m *MemoryBackend) ReadAll(_ context.Context, opts Options) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src := m.namespaces[opts.Namespace()]
	cp := make(map[string]string, len(src))
	for k, v := range src {
		cp[k] = v
	}
	return cp, nil
}

func (m *MemoryBackend) DeleteAll(_ context.Context, opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.namespaces, opts.Namespace())
	return nil
}

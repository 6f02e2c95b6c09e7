// Package backend provides durable implementations of the secure
// storage capability interface, selected by a small factory.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kalambet/lockbox/internal/secure"
)

// FileBackend stores secrets as a flat JSON object per namespace in a
// single file under dataDir. Writes go through a 0600 file in a 0700
// directory. This is the default backend on platforms without a native
// secret store integration.
type FileBackend struct {
	mu   sync.Mutex
	path string
}

func NewFileBackend(dataDir string) (*FileBackend, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileBackend{path: filepath.Join(dataDir, "secrets.json")}, nil
}

func (b *FileBackend) load() (map[string]map[string]string, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]map[string]string), nil
		}
		return nil, fmt.Errorf("reading secrets file: %w", err)
	}
	var secrets map[string]map[string]string
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}
	if secrets == nil {
		secrets = make(map[string]map[string]string)
	}
	return secrets, nil
}

func (b *FileBackend) save(secrets map[string]map[string]string) error {
	out, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, out, 0o600)
}

func (b *FileBackend) Write(_ context.Context, key, value string, opts secure.Options) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	secrets, err := b.load()
	if err != nil {
		return err
	}
	ns := opts.Namespace()
	if secrets[ns] == nil {
		secrets[ns] = make(map[string]string)
	}
	secrets[ns][key] = value
	return b.save(secrets)
}

func (b *FileBackend) Read(_ context.Context, key string, opts secure.Options) (*string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	secrets, err := b.load()
	if err != nil {
		return nil, err
	}
	v, ok := secrets[opts.Namespace()][key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (b *FileBackend) Delete(_ context.Context, key string, opts secure.Options) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	secrets, err := b.load()
	if err != nil {
		return err
	}
	ns := opts.Namespace()
	if _, ok := secrets[ns][key]; !ok {
		return nil
	}
	delete(secrets[ns], key)
	return b.save(secrets)
}

func (b *FileBackend) ContainsKey(_ context.Context, key string, opts secure.Options) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	secrets, err := b.load()
	if err != nil {
		return false, err
	}
	_, ok := secrets[opts.Namespace()][key]
	return ok, nil
}

func (b *FileBackend) ReadAll(_ context.Context, opts secure.Options) (map[string]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	secrets, err := b.load()
	if err != nil {
		return nil, err
	}
	src := secrets[opts.Namespace()]
	cp := make(map[string]string, len(src))
	for k, v := range src {
		cp[k] = v
	}
	return cp, nil
}

func (b *FileBackend) DeleteAll(_ context.Context, opts secure.Options) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	secrets, err := b.load()
	if err != nil {
		return err
	}
	ns := opts.Namespace()
	if _, ok := secrets[ns]; !ok {
		return nil
	}
	delete(secrets, ns)
	return b.save(secrets)
}

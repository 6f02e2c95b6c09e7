package secure

import (
	"context"
	"log/slog"
)

// Config holds the dependencies and per-platform defaults for a Storage.
type Config struct {
	// Backend is the store all operations delegate to. Required.
	Backend Backend

	// Registry receives change notifications. A fresh registry is
	// created when nil.
	Registry *Registry

	// Platform selects which option variant applies. PlatformUnknown
	// means detect from the running OS.
	Platform Platform

	// Defaults overrides the built-in default options per platform.
	// Platforms absent from the map keep DefaultOptions(p).
	Defaults map[Platform]Options
}

// Storage is the secure storage façade. It resolves the option set for
// each call, delegates to the configured backend, and notifies
// registered listeners after mutations. It holds no mutable state
// besides the listener registry.
type Storage struct {
	backend  Backend
	registry *Registry
	platform Platform
	defaults map[Platform]Options
	logger   *slog.Logger
}

func New(cfg Config) *Storage {
	reg := cfg.Registry
	if reg == nil {
		reg = NewRegistry()
	}
	platform := cfg.Platform
	if platform == PlatformUnknown {
		platform = CurrentPlatform()
	}
	defaults := make(map[Platform]Options, len(resolutionOrder))
	for _, p := range resolutionOrder {
		if o, ok := cfg.Defaults[p]; ok {
			defaults[p] = o.clone()
		} else {
			defaults[p] = DefaultOptions(p)
		}
	}
	return &Storage{
		backend:  cfg.Backend,
		registry: reg,
		platform: platform,
		defaults: defaults,
		logger:   slog.Default(),
	}
}

// Registry returns the listener registry this storage notifies.
func (s *Storage) Registry() *Registry {
	return s.registry
}

// Platform returns the platform the storage resolves options for.
func (s *Storage) Platform() Platform {
	return s.platform
}

// selectOptions walks the platform checks in fixed priority order and
// returns the override for the matching platform if supplied, else the
// configured default for it. A copy is returned so the resolved set
// stays immutable for the duration of the call.
func (s *Storage) selectOptions(ov Overrides) (Options, error) {
	for _, p := range resolutionOrder {
		if p != s.platform {
			continue
		}
		if o, ok := ov[p]; ok {
			return o.clone(), nil
		}
		return s.defaults[p].clone(), nil
	}
	return nil, ErrUnsupportedPlatform
}

// Write stores value under key, or deletes key when value is nil.
// Listeners registered for key are invoked with value after the
// backend call succeeds.
func (s *Storage) Write(ctx context.Context, key string, value *string, ov Overrides) error {
	opts, err := s.selectOptions(ov)
	if err != nil {
		return err
	}
	if value == nil {
		if err := s.backend.Delete(ctx, key, opts); err != nil {
			return err
		}
	} else {
		if err := s.backend.Write(ctx, key, *value, opts); err != nil {
			return err
		}
	}
	s.notify(s.registry.snapshot(key), value)
	return nil
}

// Read returns the stored value for key, or nil when absent. Reads do
// not notify listeners.
func (s *Storage) Read(ctx context.Context, key string, ov Overrides) (*string, error) {
	opts, err := s.selectOptions(ov)
	if err != nil {
		return nil, err
	}
	return s.backend.Read(ctx, key, opts)
}

// ContainsKey reports whether key holds a value.
func (s *Storage) ContainsKey(ctx context.Context, key string, ov Overrides) (bool, error) {
	opts, err := s.selectOptions(ov)
	if err != nil {
		return false, err
	}
	return s.backend.ContainsKey(ctx, key, opts)
}

// Delete removes key and notifies key's listeners with nil.
func (s *Storage) Delete(ctx context.Context, key string, ov Overrides) error {
	opts, err := s.selectOptions(ov)
	if err != nil {
		return err
	}
	if err := s.backend.Delete(ctx, key, opts); err != nil {
		return err
	}
	s.notify(s.registry.snapshot(key), nil)
	return nil
}

// ReadAll returns every stored key/value pair.
func (s *Storage) ReadAll(ctx context.Context, ov Overrides) (map[string]string, error) {
	opts, err := s.selectOptions(ov)
	if err != nil {
		return nil, err
	}
	return s.backend.ReadAll(ctx, opts)
}

// DeleteAll removes every stored key and notifies every registered
// listener, across all keys, with nil — including listeners on keys
// that held no value.
func (s *Storage) DeleteAll(ctx context.Context, ov Overrides) error {
	opts, err := s.selectOptions(ov)
	if err != nil {
		return err
	}
	if err := s.backend.DeleteAll(ctx, opts); err != nil {
		return err
	}
	s.notify(s.registry.snapshotAll(), nil)
	return nil
}

// notify invokes listeners synchronously in order. Each invocation is
// isolated so a panicking listener cannot suppress delivery to the rest.
func (s *Storage) notify(listeners []Listener, value *string) {
	for _, fn := range listeners {
		s.invoke(fn, value)
	}
}

func (s *Storage) invoke(fn Listener, value *string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("listener panicked", "panic", r)
		}
	}()
	fn(value)
}

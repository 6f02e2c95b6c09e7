package secure

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// TestSelectOptionsDefault verifies resolution returns exactly the
// configured default mapping when no override matches the platform.
func TestSelectOptionsDefault(t *testing.T) {
	defaults := Options{"accountName": "custom", "namespace": "ns1"}
	s := New(Config{
		Backend:  NewMemoryBackend(nil),
		Platform: PlatformMacOS,
		Defaults: map[Platform]Options{PlatformMacOS: defaults},
	})

	got, err := s.selectOptions(nil)
	if err != nil {
		t.Fatalf("selectOptions failed: %v", err)
	}
	if !reflect.DeepEqual(got, defaults) {
		t.Errorf("selectOptions = %v, want %v", got, defaults)
	}
}

// TestSelectOptionsOverrideWins verifies a per-call override for the
// active platform replaces the default, while overrides for other
// platforms are ignored.
func TestSelectOptionsOverrideWins(t *testing.T) {
	s := New(Config{
		Backend:  NewMemoryBackend(nil),
		Platform: PlatformAndroid,
	})

	ov := Overrides{
		PlatformAndroid: {"sharedPreferencesName": "alt"},
		PlatformIOS:     {"accountName": "ignored"},
	}

	got, err := s.selectOptions(ov)
	if err != nil {
		t.Fatalf("selectOptions failed: %v", err)
	}
	if got["sharedPreferencesName"] != "alt" {
		t.Errorf("sharedPreferencesName = %q, want %q", got["sharedPreferencesName"], "alt")
	}
	if _, ok := got["accountName"]; ok {
		t.Error("override for a different platform leaked into the resolved set")
	}
}

// TestSelectOptionsCopies verifies mutating the resolved set does not
// corrupt the storage defaults for later calls.
func TestSelectOptionsCopies(t *testing.T) {
	s := New(Config{
		Backend:  NewMemoryBackend(nil),
		Platform: PlatformLinux,
	})

	first, err := s.selectOptions(nil)
	if err != nil {
		t.Fatalf("selectOptions failed: %v", err)
	}
	first["namespace"] = "mutated"

	second, err := s.selectOptions(nil)
	if err != nil {
		t.Fatalf("selectOptions failed: %v", err)
	}
	if second["namespace"] == "mutated" {
		t.Error("mutation of a resolved option set leaked into defaults")
	}
}

// TestUnsupportedPlatform verifies every operation fails with
// ErrUnsupportedPlatform when no platform check matches.
func TestUnsupportedPlatform(t *testing.T) {
	ctx := context.Background()
	s := New(Config{
		Backend:  NewMemoryBackend(nil),
		Platform: Platform(99),
	})

	if err := s.Write(ctx, "k", strPtr("v"), nil); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("Write error = %v, want ErrUnsupportedPlatform", err)
	}
	if _, err := s.Read(ctx, "k", nil); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("Read error = %v, want ErrUnsupportedPlatform", err)
	}
	if err := s.DeleteAll(ctx, nil); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("DeleteAll error = %v, want ErrUnsupportedPlatform", err)
	}
}

// TestResolutionOrder pins the fixed platform priority.
func TestResolutionOrder(t *testing.T) {
	want := []Platform{
		PlatformWeb, PlatformLinux, PlatformIOS, PlatformAndroid,
		PlatformWindows, PlatformMacOS, PlatformFuchsia,
	}
	if !reflect.DeepEqual(resolutionOrder, want) {
		t.Errorf("resolutionOrder = %v, want %v", resolutionOrder, want)
	}
}

// TestDefaultOptionsNamespace verifies every platform default carries a
// namespace so backends always partition consistently.
func TestDefaultOptionsNamespace(t *testing.T) {
	for _, p := range resolutionOrder {
		if ns := DefaultOptions(p).Namespace(); ns != DefaultNamespace {
			t.Errorf("DefaultOptions(%s).Namespace() = %q, want %q", p, ns, DefaultNamespace)
		}
	}
}

package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kalambet/lockbox/internal/secure"
)

var defaultOpts = secure.Options{secure.OptNamespace: secure.DefaultNamespace}

// roundTrip exercises the full capability interface against a backend.
func roundTrip(t *testing.T, b secure.Backend) {
	t.Helper()
	ctx := context.Background()

	if err := b.Write(ctx, "k1", "v1", defaultOpts); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := b.Write(ctx, "k1", "v1-updated", defaultOpts); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if err := b.Write(ctx, "k2", "v2", defaultOpts); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := b.Read(ctx, "k1", defaultOpts)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got == nil || *got != "v1-updated" {
		t.Errorf("Read(k1) = %v, want %q", got, "v1-updated")
	}

	absent, err := b.Read(ctx, "missing", defaultOpts)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if absent != nil {
		t.Errorf("Read(missing) = %q, want nil", *absent)
	}

	exists, err := b.ContainsKey(ctx, "k2", defaultOpts)
	if err != nil {
		t.Fatalf("ContainsKey failed: %v", err)
	}
	if !exists {
		t.Error("ContainsKey(k2) = false, want true")
	}

	all, err := b.ReadAll(ctx, defaultOpts)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ReadAll returned %d entries, want 2", len(all))
	}

	if err := b.Delete(ctx, "k1", defaultOpts); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := b.Delete(ctx, "k1", defaultOpts); err != nil {
		t.Errorf("deleting an absent key should be a no-op, got: %v", err)
	}
	exists, err = b.ContainsKey(ctx, "k1", defaultOpts)
	if err != nil {
		t.Fatalf("ContainsKey failed: %v", err)
	}
	if exists {
		t.Error("ContainsKey(k1) = true after Delete, want false")
	}

	if err := b.DeleteAll(ctx, defaultOpts); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	all, err = b.ReadAll(ctx, defaultOpts)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("ReadAll after DeleteAll returned %d entries, want 0", len(all))
	}
}

// namespaceIsolation verifies namespaces do not see each other's keys
// and DeleteAll only clears its own namespace.
func namespaceIsolation(t *testing.T, b secure.Backend) {
	t.Helper()
	ctx := context.Background()
	nsA := secure.Options{secure.OptNamespace: "a"}
	nsB := secure.Options{secure.OptNamespace: "b"}

	if err := b.Write(ctx, "shared", "from-a", nsA); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := b.Write(ctx, "shared", "from-b", nsB); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := b.Read(ctx, "shared", nsA)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got == nil || *got != "from-a" {
		t.Errorf("Read in namespace a = %v, want %q", got, "from-a")
	}

	if err := b.DeleteAll(ctx, nsA); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}
	got, err = b.Read(ctx, "shared", nsB)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got == nil || *got != "from-b" {
		t.Errorf("DeleteAll in namespace a touched namespace b: got %v", got)
	}
}

func TestFileBackend(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend failed: %v", err)
	}
	roundTrip(t, b)
	namespaceIsolation(t, b)
}

// TestFileBackendPersistence verifies a second backend over the same
// directory sees earlier writes.
func TestFileBackendPersistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b1, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("NewFileBackend failed: %v", err)
	}
	if err := b1.Write(ctx, "k", "persisted", defaultOpts); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	b2, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("NewFileBackend failed: %v", err)
	}
	got, err := b2.Read(ctx, "k", defaultOpts)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got == nil || *got != "persisted" {
		t.Errorf("Read from second backend = %v, want %q", got, "persisted")
	}
}

// TestFileBackendPermissions verifies the secrets file is not group or
// world readable.
func TestFileBackendPermissions(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("NewFileBackend failed: %v", err)
	}
	if err := b.Write(ctx, "k", "v", defaultOpts); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "secrets.json"))
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("secrets file permissions = %o, want 600", perm)
	}
}

func TestSQLiteBackend(t *testing.T) {
	b, err := NewSQLiteBackend(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteBackend failed: %v", err)
	}
	t.Cleanup(func() { b.Close() })

	roundTrip(t, b)
	namespaceIsolation(t, b)
}

func TestFactory(t *testing.T) {
	tests := []struct {
		kind    string
		wantErr bool
	}{
		{"file", false},
		{"", false},
		{"sqlite", false},
		{"memory", false},
		{"etcd", true},
	}
	for _, tt := range tests {
		b, err := New(tt.kind, t.TempDir())
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q) succeeded, want error", tt.kind)
			}
			continue
		}
		if err != nil {
			t.Errorf("New(%q) failed: %v", tt.kind, err)
			continue
		}
		if b == nil {
			t.Errorf("New(%q) returned nil backend", tt.kind)
		}
		if c, ok := b.(*SQLiteBackend); ok {
			c.Close()
		}
	}
}

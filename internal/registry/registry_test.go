package registry

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestTouchAndRecent(t *testing.T) {
	ctx := context.Background()
	r := openTestRegistry(t)

	if err := r.Touch(ctx, "/tmp/projects/sales.duckdb"); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if err := r.Touch(ctx, "/tmp/projects/churn.duckdb"); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	entries, err := r.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].DisplayName != "churn" && entries[1].DisplayName != "churn" {
		t.Errorf("expected a churn entry, got %+v", entries)
	}
}

func TestTouch_Idempotent(t *testing.T) {
	ctx := context.Background()
	r := openTestRegistry(t)

	for i := 0; i < 3; i++ {
		if err := r.Touch(ctx, "/tmp/projects/sales.duckdb"); err != nil {
			t.Fatalf("Touch failed: %v", err)
		}
	}

	entries, err := r.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].OpenCount != 3 {
		t.Errorf("expected open_count 3, got %d", entries[0].OpenCount)
	}
}

func TestRecent_Limit(t *testing.T) {
	ctx := context.Background()
	r := openTestRegistry(t)

	paths := []string{"/tmp/a.duckdb", "/tmp/b.duckdb", "/tmp/c.duckdb"}
	for _, p := range paths {
		if err := r.Touch(ctx, p); err != nil {
			t.Fatalf("Touch failed: %v", err)
		}
	}

	entries, err := r.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	r := openTestRegistry(t)

	if err := r.Touch(ctx, "/tmp/projects/sales.duckdb"); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}

	removed, err := r.Forget(ctx, "/tmp/projects/sales.duckdb")
	if err != nil {
		t.Fatalf("Forget failed: %v", err)
	}
	if !removed {
		t.Error("expected entry to be removed")
	}

	// Forgetting an unknown path is a no-op, not an error.
	removed, err = r.Forget(ctx, "/tmp/projects/ghost.duckdb")
	if err != nil {
		t.Fatalf("Forget failed: %v", err)
	}
	if removed {
		t.Error("expected no removal for unknown path")
	}
}

func TestOpen_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.db")

	r1, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := r1.Touch(ctx, "/tmp/projects/sales.duckdb"); err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if err := r1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer r2.Close()

	entries, err := r2.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected entry to survive reopen, got %d", len(entries))
	}
}

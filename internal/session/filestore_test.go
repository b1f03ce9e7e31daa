package session

import (
	"context"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, KeyToken); err != nil || ok {
		t.Fatalf("Missing key should report ok=false, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, KeyToken, "abc123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	value, ok, err := store.Get(ctx, KeyToken)
	if err != nil || !ok || value != "abc123" {
		t.Fatalf("Get after Set: value=%q ok=%v err=%v", value, ok, err)
	}

	if err := store.Set(ctx, KeyToken, "def456"); err != nil {
		t.Fatalf("Overwrite: %v", err)
	}
	value, _, _ = store.Get(ctx, KeyToken)
	if value != "def456" {
		t.Errorf("Overwrite should replace value, got %q", value)
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := first.Set(ctx, KeyCart, `[{"quantity":2}]`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	second, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	value, ok, err := second.Get(ctx, KeyCart)
	if err != nil || !ok {
		t.Fatalf("Get after reopen: ok=%v err=%v", ok, err)
	}
	if value != `[{"quantity":2}]` {
		t.Errorf("Persisted value mismatch: %q", value)
	}
}

func TestFileStoreDeleteIsIdempotent(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if err := store.Set(ctx, KeyToken, "abc123"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Delete(ctx, KeyToken); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, KeyToken); ok {
		t.Error("Deleted key should be gone")
	}
	if err := store.Delete(ctx, KeyToken); err != nil {
		t.Errorf("Second delete should be a no-op, got %v", err)
	}
}

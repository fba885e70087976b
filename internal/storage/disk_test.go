package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() unexpected error: %v", err)
	}
	ctx := context.Background()

	path, err := store.Save(ctx, "image/png", ".png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, path[len(PathPrefix):])); err != nil {
		t.Fatalf("saved file missing on disk: %v", err)
	}

	rc, err := store.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		t.Fatalf("ReadAll() unexpected error: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("Open() content = %q, want %q", data, "png-bytes")
	}

	if err := store.Delete(ctx, path); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, err := store.Open(ctx, path); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open() after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, path); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestDiskStoreRejectsEscapingPaths(t *testing.T) {
	root := t.TempDir()
	store, err := NewDiskStore(filepath.Join(root, "uploads"))
	if err != nil {
		t.Fatalf("NewDiskStore() unexpected error: %v", err)
	}
	secret := filepath.Join(root, "secret.txt")
	if err := os.WriteFile(secret, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Open(context.Background(), "uploads/../secret.txt"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Open() error = %v, want ErrInvalidPath", err)
	}
	if err := store.Delete(context.Background(), "uploads/../secret.txt"); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Delete() error = %v, want ErrInvalidPath", err)
	}
	if _, err := os.Stat(secret); err != nil {
		t.Errorf("file outside the store was touched: %v", err)
	}
}

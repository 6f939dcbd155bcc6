package storage

import (
	"context"
	"testing"
)

func TestFSStoreRoundTrip(t *testing.T) {
	store, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	data := []byte("scanned sheet bytes")
	if err := store.Put(ctx, "scans/1.png", data); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := store.Get(ctx, "scans/1.png")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Get() = %q, want %q", got, data)
	}
}

func TestFSStoreMissingObject(t *testing.T) {
	store, _ := NewFSStore(t.TempDir())
	if _, err := store.Get(context.Background(), "scans/999.png"); err != ErrObjectNotFound {
		t.Errorf("Get() error = %v, want ErrObjectNotFound", err)
	}
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	store, _ := NewFSStore(t.TempDir())
	for _, key := range []string{"../etc/passwd", "/abs/path", "."} {
		if err := store.Put(context.Background(), key, []byte("x")); err == nil {
			t.Errorf("Put(%q) accepted a traversal key", key)
		}
	}
}

func TestKeySchemes(t *testing.T) {
	if got := ScanKey(42, "jpg"); got != "scans/42.jpg" {
		t.Errorf("ScanKey() = %q", got)
	}
	if got := ScanKey(42, ""); got != "scans/42.png" {
		t.Errorf("ScanKey() default ext = %q", got)
	}
	if got := SheetKey(7, 12); got != "sheets/7/12.pdf" {
		t.Errorf("SheetKey() = %q", got)
	}
}

package hal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "kv.yaml")
	kv := NewFileKV(path)

	if _, ok, err := kv.Get("last_sync_date"); ok || err != nil {
		t.Fatalf("Get() on a missing file = %v, %v", ok, err)
	}
	if err := kv.Set("last_sync_date", "2025-06-01"); err != nil {
		t.Fatal(err)
	}
	if err := kv.Set("boot_count", "3"); err != nil {
		t.Fatal(err)
	}

	reopened := NewFileKV(path)
	v, ok, err := reopened.Get("last_sync_date")
	if err != nil || !ok || v != "2025-06-01" {
		t.Errorf("Get() = %q, %v, %v", v, ok, err)
	}
}

func TestFileKVCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.yaml")
	if err := os.WriteFile(path, []byte("[not: a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := NewFileKV(path).Get("k"); err == nil {
		t.Error("corrupt document read without error")
	}
}

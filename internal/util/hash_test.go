package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestContentHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	// Known SHA-256 of "hello"
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	got, err := ContentHash(path)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	// Identical bytes at a different path hash identically
	other := filepath.Join(dir, "b.bin")
	if err := os.WriteFile(other, []byte("hello"), 0644); err != nil {
		t.Fatalf("failed to write second file: %v", err)
	}
	got2, err := ContentHash(other)
	if err != nil {
		t.Fatalf("failed to hash second file: %v", err)
	}
	if got2 != got {
		t.Errorf("same bytes hashed differently: %s vs %s", got, got2)
	}
}

func TestContentHashMissingFile(t *testing.T) {
	if _, err := ContentHash("/does/not/exist"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetFileMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.bin")
	if err := os.WriteFile(path, []byte("12345"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	size, mtime, err := GetFileMetadata(path)
	if err != nil {
		t.Fatalf("failed to stat: %v", err)
	}
	if size != 5 {
		t.Errorf("expected size 5, got %d", size)
	}
	if mtime == 0 {
		t.Error("expected non-zero mtime")
	}
}

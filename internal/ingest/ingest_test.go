package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ParkWardRR/cartomix/internal/store"
)

func openTestStore(t *testing.T, name string) *store.Store {
	t.Helper()

	t.Cleanup(func() {
		os.Remove(name)
		os.Remove(name + "-shm")
		os.Remove(name + "-wal")
	})

	s, err := store.Open(name)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestImportCreatesTracks(t *testing.T) {
	s := openTestStore(t, "test-import.db")
	dir := t.TempDir()

	// Files without real tags fall back to the filename as title
	writeFile(t, dir, "one.mp3", []byte("fake audio one"))
	writeFile(t, dir, "two.flac", []byte("fake audio two"))
	writeFile(t, dir, "notes.txt", []byte("not audio"))

	im := New(&Config{Store: s, Concurrency: 2})

	result, err := im.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if result.FilesFound != 2 {
		t.Errorf("expected 2 audio files found, got %d", result.FilesFound)
	}
	if result.TracksCreated != 2 {
		t.Errorf("expected 2 tracks created, got %d", result.TracksCreated)
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}

	tracks, err := s.GetAllTracks()
	if err != nil {
		t.Fatalf("failed to list tracks: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks in store, got %d", len(tracks))
	}
	titles := map[string]bool{}
	for _, tr := range tracks {
		titles[tr.Title] = true
		if tr.ContentHash == "" {
			t.Errorf("track %d has empty content hash", tr.ID)
		}
		if tr.SizeBytes == 0 {
			t.Errorf("track %d has zero size", tr.ID)
		}
	}
	if !titles["one"] || !titles["two"] {
		t.Errorf("filename fallback titles missing: %v", titles)
	}
}

func TestReimportAtNewPathKeepsIdentity(t *testing.T) {
	s := openTestStore(t, "test-reimport.db")

	dirA := t.TempDir()
	content := []byte("identical bytes either way")
	writeFile(t, dirA, "track.mp3", content)

	im := New(&Config{Store: s, Concurrency: 1})

	if _, err := im.Import(context.Background(), dirA); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	original, err := s.GetAllTracks()
	if err != nil || len(original) != 1 {
		t.Fatalf("expected 1 track after first import: %v", err)
	}

	// Same bytes at a new location
	dirB := t.TempDir()
	newPath := writeFile(t, dirB, "renamed.mp3", content)

	result, err := im.Import(context.Background(), dirB)
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	if result.TracksCreated != 0 || result.TracksUpdated != 1 {
		t.Errorf("expected 0 created / 1 updated, got %d / %d",
			result.TracksCreated, result.TracksUpdated)
	}

	tracks, err := s.GetAllTracks()
	if err != nil {
		t.Fatalf("failed to list tracks: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("re-import duplicated the track: %d rows", len(tracks))
	}
	if tracks[0].ID != original[0].ID {
		t.Errorf("track identity changed: %d -> %d", original[0].ID, tracks[0].ID)
	}
	if tracks[0].Path != newPath {
		t.Errorf("expected path %s, got %s", newPath, tracks[0].Path)
	}
}

func TestImportRecursesSubdirectories(t *testing.T) {
	s := openTestStore(t, "test-import-nested.db")
	dir := t.TempDir()

	sub := filepath.Join(dir, "crate", "deep")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("failed to make subdir: %v", err)
	}
	writeFile(t, dir, "top.mp3", []byte("top level"))
	writeFile(t, sub, "nested.ogg", []byte("nested"))

	im := New(&Config{Store: s})

	result, err := im.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.FilesFound != 2 || result.TracksCreated != 2 {
		t.Errorf("expected 2 found / 2 created, got %d / %d",
			result.FilesFound, result.TracksCreated)
	}
}

func TestImportAdditionalExtensions(t *testing.T) {
	s := openTestStore(t, "test-import-ext.db")
	dir := t.TempDir()

	writeFile(t, dir, "weird.xyz", []byte("custom format"))

	im := New(&Config{Store: s, AdditionalExts: []string{".xyz"}})

	result, err := im.Import(context.Background(), dir)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if result.FilesFound != 1 || result.TracksCreated != 1 {
		t.Errorf("custom extension not picked up: %+v", result)
	}
}

func TestIsAudioFile(t *testing.T) {
	im := New(&Config{})

	cases := []struct {
		path string
		want bool
	}{
		{"/music/a.mp3", true},
		{"/music/a.MP3", true},
		{"/music/a.flac", true},
		{"/music/a.txt", false},
		{"/music/noext", false},
	}
	for _, tc := range cases {
		if got := im.isAudioFile(tc.path); got != tc.want {
			t.Errorf("isAudioFile(%q): expected %v, got %v", tc.path, tc.want, got)
		}
	}
}

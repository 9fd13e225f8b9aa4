package store

import (
	"errors"
	"testing"

	"github.com/ParkWardRR/cartomix/internal/util"
)

func TestVectorEncodeDecode(t *testing.T) {
	vec := []float32{0.0, 1.5, -2.25, 3.14159}

	decoded, err := decodeVector(encodeVector(vec), len(vec))
	if err != nil {
		t.Fatalf("failed to decode vector: %v", err)
	}
	for i := range vec {
		if decoded[i] != vec[i] {
			t.Errorf("element %d: expected %v, got %v", i, vec[i], decoded[i])
		}
	}
}

func TestDecodeVectorLengthMismatch(t *testing.T) {
	if _, err := decodeVector([]byte{1, 2, 3}, 1); err == nil {
		t.Error("expected error for truncated blob")
	}
}

func TestEmbeddingRoundTrip(t *testing.T) {
	store := openTestStore(t, "test-embedding.db")
	track := mustCreateTrack(t, store, "embedded")

	vec := []float32{0.5, -0.5, 0.25, 1.0}
	if err := store.PutEmbedding(track.ID, 1, vec); err != nil {
		t.Fatalf("failed to put embedding: %v", err)
	}

	got, err := store.GetEmbedding(track.ID, 1)
	if err != nil {
		t.Fatalf("failed to get embedding: %v", err)
	}
	if len(got.Vector) != len(vec) {
		t.Fatalf("expected %d dims, got %d", len(vec), len(got.Vector))
	}
	for i := range vec {
		if got.Vector[i] != vec[i] {
			t.Errorf("element %d: expected %v, got %v", i, vec[i], got.Vector[i])
		}
	}
}

func TestLatestEmbedding(t *testing.T) {
	store := openTestStore(t, "test-latest-embedding.db")
	track := mustCreateTrack(t, store, "reembedded")

	if err := store.PutEmbedding(track.ID, 1, []float32{1, 0}); err != nil {
		t.Fatalf("failed to put v1 embedding: %v", err)
	}
	if err := store.PutEmbedding(track.ID, 2, []float32{0, 1}); err != nil {
		t.Fatalf("failed to put v2 embedding: %v", err)
	}

	latest, err := store.LatestEmbedding(track.ID)
	if err != nil {
		t.Fatalf("failed to get latest embedding: %v", err)
	}
	if latest.Version != 2 {
		t.Errorf("expected version 2, got %d", latest.Version)
	}
	if latest.Vector[0] != 0 || latest.Vector[1] != 1 {
		t.Errorf("expected v2 vector, got %v", latest.Vector)
	}
}

func TestPutEmbeddingValidation(t *testing.T) {
	store := openTestStore(t, "test-embedding-validation.db")
	track := mustCreateTrack(t, store, "empty-vec")

	if err := store.PutEmbedding(track.ID, 1, nil); !errors.Is(err, util.ErrValidation) {
		t.Errorf("expected ErrValidation for empty vector, got %v", err)
	}
}

func TestTracksWithEmbeddings(t *testing.T) {
	store := openTestStore(t, "test-embedded-tracks.db")
	t1 := mustCreateTrack(t, store, "has-vec")
	t2 := mustCreateTrack(t, store, "no-vec")
	_ = t2

	if err := store.PutEmbedding(t1.ID, 1, []float32{1}); err != nil {
		t.Fatalf("failed to put embedding: %v", err)
	}
	if err := store.PutEmbedding(t1.ID, 2, []float32{2}); err != nil {
		t.Fatalf("failed to put second embedding: %v", err)
	}

	ids, err := store.TracksWithEmbeddings()
	if err != nil {
		t.Fatalf("failed to list embedded tracks: %v", err)
	}
	if len(ids) != 1 || ids[0] != t1.ID {
		t.Errorf("expected [%d], got %v", t1.ID, ids)
	}
}

func TestGetEmbeddingNotFound(t *testing.T) {
	store := openTestStore(t, "test-embedding-missing.db")

	if _, err := store.GetEmbedding(1, 1); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.LatestEmbedding(1); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound for latest, got %v", err)
	}
}

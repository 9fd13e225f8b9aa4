package store

import (
	"errors"
	"testing"

	"github.com/ParkWardRR/cartomix/internal/util"
)

func TestCanonicalPair(t *testing.T) {
	a, b := CanonicalPair(7, 3)
	if a != 3 || b != 7 {
		t.Errorf("expected (3, 7), got (%d, %d)", a, b)
	}
	a, b = CanonicalPair(3, 7)
	if a != 3 || b != 7 {
		t.Errorf("expected (3, 7), got (%d, %d)", a, b)
	}
}

func TestSimilarityCacheCanonicalOrdering(t *testing.T) {
	store := openTestStore(t, "test-sim-canonical.db")
	t1 := mustCreateTrack(t, store, "sim-a")
	t2 := mustCreateTrack(t, store, "sim-b")

	// Store reversed; lookup in both orders must hit the same row
	err := store.UpsertSimilarity(&SimilarityEntry{
		TrackA: t2.ID, TrackB: t1.ID,
		Vibe: 0.9, Tempo: 0.75, Key: 0.8, Energy: 0.89,
		Combined:    0.849,
		Explanation: "similar vibe (90%)",
	})
	if err != nil {
		t.Fatalf("failed to upsert similarity: %v", err)
	}

	forward, err := store.GetSimilarity(t1.ID, t2.ID)
	if err != nil {
		t.Fatalf("failed to get similarity: %v", err)
	}
	reverse, err := store.GetSimilarity(t2.ID, t1.ID)
	if err != nil {
		t.Fatalf("failed to get reversed similarity: %v", err)
	}
	if forward == nil || reverse == nil {
		t.Fatal("expected cache hit in both orders")
	}
	if forward.TrackA != t1.ID || forward.TrackB != t2.ID {
		t.Errorf("expected canonical order (%d, %d), got (%d, %d)",
			t1.ID, t2.ID, forward.TrackA, forward.TrackB)
	}
	if forward.Combined != reverse.Combined {
		t.Errorf("symmetric lookup returned different scores: %v vs %v",
			forward.Combined, reverse.Combined)
	}

	count, err := store.CountSimilarityEntries()
	if err != nil {
		t.Fatalf("failed to count entries: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 cache row, got %d", count)
	}
}

func TestSimilaritySelfPairRejected(t *testing.T) {
	store := openTestStore(t, "test-sim-self.db")
	track := mustCreateTrack(t, store, "narcissist")

	err := store.UpsertSimilarity(&SimilarityEntry{TrackA: track.ID, TrackB: track.ID})
	if !errors.Is(err, util.ErrValidation) {
		t.Errorf("expected ErrValidation for self pair, got %v", err)
	}
}

func TestSimilarityCacheMissReturnsNil(t *testing.T) {
	store := openTestStore(t, "test-sim-miss.db")

	entry, err := store.GetSimilarity(1, 2)
	if err != nil {
		t.Fatalf("cache miss should not be an error: %v", err)
	}
	if entry != nil {
		t.Errorf("expected nil on cache miss, got %+v", entry)
	}
}

func TestReanalysisInvalidatesSimilarity(t *testing.T) {
	store := openTestStore(t, "test-sim-invalidate.db")
	t1 := mustCreateTrack(t, store, "inv-a")
	t2 := mustCreateTrack(t, store, "inv-b")
	t3 := mustCreateTrack(t, store, "inv-c")

	pairs := [][2]int64{{t1.ID, t2.ID}, {t1.ID, t3.ID}, {t2.ID, t3.ID}}
	for _, p := range pairs {
		if err := store.UpsertSimilarity(&SimilarityEntry{TrackA: p[0], TrackB: p[1], Combined: 0.5}); err != nil {
			t.Fatalf("failed to seed pair %v: %v", p, err)
		}
	}

	// Completing a new analysis for t1 must drop both pairs touching t1
	a, err := store.BeginAnalysis(t1.ID)
	if err != nil {
		t.Fatalf("failed to begin analysis: %v", err)
	}
	if err := store.RecordResult(a.ID, StatusComplete, &AnalysisResult{BPM: 130}); err != nil {
		t.Fatalf("failed to complete analysis: %v", err)
	}

	for _, p := range pairs[:2] {
		entry, err := store.GetSimilarity(p[0], p[1])
		if err != nil {
			t.Fatalf("failed to get similarity: %v", err)
		}
		if entry != nil {
			t.Errorf("pair (%d, %d) should have been invalidated", p[0], p[1])
		}
	}

	// The pair not touching t1 survives
	entry, err := store.GetSimilarity(t2.ID, t3.ID)
	if err != nil {
		t.Fatalf("failed to get surviving similarity: %v", err)
	}
	if entry == nil {
		t.Error("pair (t2, t3) should have survived invalidation")
	}
}

func TestNewEmbeddingInvalidatesSimilarity(t *testing.T) {
	store := openTestStore(t, "test-emb-invalidate.db")
	t1 := mustCreateTrack(t, store, "emb-a")
	t2 := mustCreateTrack(t, store, "emb-b")

	if err := store.UpsertSimilarity(&SimilarityEntry{TrackA: t1.ID, TrackB: t2.ID, Combined: 0.7}); err != nil {
		t.Fatalf("failed to seed similarity: %v", err)
	}

	if err := store.PutEmbedding(t1.ID, 1, []float32{1, 0, 0}); err != nil {
		t.Fatalf("failed to put embedding: %v", err)
	}

	entry, err := store.GetSimilarity(t1.ID, t2.ID)
	if err != nil {
		t.Fatalf("failed to get similarity: %v", err)
	}
	if entry != nil {
		t.Error("new embedding should invalidate cached pairs")
	}
}

package store

import (
	"errors"
	"testing"

	"github.com/ParkWardRR/cartomix/internal/util"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestUpsertCueEditIdempotent(t *testing.T) {
	store := openTestStore(t, "test-cue-edits.db")
	track := mustCreateTrack(t, store, "cued")

	edit := &CueEdit{
		TrackID:  track.ID,
		CueIndex: 2,
		Label:    strPtr("Mix Out"),
		Type:     strPtr("hotcue"),
	}
	if err := store.UpsertCueEdit(edit); err != nil {
		t.Fatalf("failed to upsert cue edit: %v", err)
	}
	// Re-applying the same edit must not error or duplicate
	if err := store.UpsertCueEdit(edit); err != nil {
		t.Fatalf("repeated upsert should be a no-op: %v", err)
	}

	edits, err := store.CueEdits(track.ID)
	if err != nil {
		t.Fatalf("failed to list cue edits: %v", err)
	}
	if len(edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(edits))
	}
	if edits[0].Label == nil || *edits[0].Label != "Mix Out" {
		t.Errorf("label not preserved: %v", edits[0].Label)
	}
	if edits[0].BeatIndex != nil {
		t.Errorf("unset beat index should stay nil, got %v", *edits[0].BeatIndex)
	}
}

func TestUpsertCueEditOverwrites(t *testing.T) {
	store := openTestStore(t, "test-cue-overwrite.db")
	track := mustCreateTrack(t, store, "overwritten")

	if err := store.UpsertCueEdit(&CueEdit{
		TrackID: track.ID, CueIndex: 0, Label: strPtr("old"),
	}); err != nil {
		t.Fatalf("failed to upsert cue edit: %v", err)
	}
	if err := store.UpsertCueEdit(&CueEdit{
		TrackID: track.ID, CueIndex: 0, Label: strPtr("new"), BeatIndex: intPtr(64),
	}); err != nil {
		t.Fatalf("failed to overwrite cue edit: %v", err)
	}

	edits, err := store.CueEdits(track.ID)
	if err != nil {
		t.Fatalf("failed to list cue edits: %v", err)
	}
	if len(edits) != 1 {
		t.Fatalf("expected 1 edit, got %d", len(edits))
	}
	if *edits[0].Label != "new" || *edits[0].BeatIndex != 64 {
		t.Errorf("overwrite not applied: %+v", edits[0])
	}
}

func TestCueEditValidation(t *testing.T) {
	store := openTestStore(t, "test-cue-validation.db")
	track := mustCreateTrack(t, store, "invalid-cue")

	err := store.UpsertCueEdit(&CueEdit{TrackID: track.ID, CueIndex: -1})
	if !errors.Is(err, util.ErrValidation) {
		t.Errorf("expected ErrValidation for negative index, got %v", err)
	}
}

func TestCueEditsOrderedByIndex(t *testing.T) {
	store := openTestStore(t, "test-cue-order.db")
	track := mustCreateTrack(t, store, "ordered")

	for _, idx := range []int{5, 1, 3} {
		if err := store.UpsertCueEdit(&CueEdit{TrackID: track.ID, CueIndex: idx}); err != nil {
			t.Fatalf("failed to upsert cue %d: %v", idx, err)
		}
	}

	edits, err := store.CueEdits(track.ID)
	if err != nil {
		t.Fatalf("failed to list cue edits: %v", err)
	}
	if len(edits) != 3 {
		t.Fatalf("expected 3 edits, got %d", len(edits))
	}
	for i, want := range []int{1, 3, 5} {
		if edits[i].CueIndex != want {
			t.Errorf("position %d: expected index %d, got %d", i, want, edits[i].CueIndex)
		}
	}
}

func TestDeleteCueEdit(t *testing.T) {
	store := openTestStore(t, "test-cue-delete.db")
	track := mustCreateTrack(t, store, "deletable-cue")

	if err := store.UpsertCueEdit(&CueEdit{TrackID: track.ID, CueIndex: 0}); err != nil {
		t.Fatalf("failed to upsert cue edit: %v", err)
	}
	if err := store.DeleteCueEdit(track.ID, 0); err != nil {
		t.Fatalf("failed to delete cue edit: %v", err)
	}

	edits, err := store.CueEdits(track.ID)
	if err != nil {
		t.Fatalf("failed to list cue edits: %v", err)
	}
	if len(edits) != 0 {
		t.Errorf("expected no edits after delete, got %d", len(edits))
	}
}

func TestCueEditsSurviveReanalysis(t *testing.T) {
	store := openTestStore(t, "test-cue-survival.db")
	track := mustCreateTrack(t, store, "survivor-cue")

	if err := store.UpsertCueEdit(&CueEdit{
		TrackID: track.ID, CueIndex: 1, Label: strPtr("My Drop"),
	}); err != nil {
		t.Fatalf("failed to upsert cue edit: %v", err)
	}

	a, err := store.BeginAnalysis(track.ID)
	if err != nil {
		t.Fatalf("failed to begin analysis: %v", err)
	}
	err = store.RecordResult(a.ID, StatusComplete, &AnalysisResult{
		Cues: []Cue{{Index: 0, Label: "computed"}, {Index: 1, Label: "computed"}},
	})
	if err != nil {
		t.Fatalf("failed to complete analysis: %v", err)
	}

	edits, err := store.CueEdits(track.ID)
	if err != nil {
		t.Fatalf("failed to list cue edits: %v", err)
	}
	if len(edits) != 1 || *edits[0].Label != "My Drop" {
		t.Errorf("cue edit lost across re-analysis: %+v", edits)
	}
}

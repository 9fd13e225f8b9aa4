package store

import (
	"errors"
	"testing"

	"github.com/ParkWardRR/cartomix/internal/util"
)

func TestTrainingLabelRoundTrip(t *testing.T) {
	store := openTestStore(t, "test-labels.db")
	track := mustCreateTrack(t, store, "labeled")

	label := &TrainingLabel{
		TrackID:   track.ID,
		Label:     "breakdown",
		StartSecs: 90,
		EndSecs:   120,
		StartBeat: 192,
		EndBeat:   256,
	}
	if err := store.AddTrainingLabel(label); err != nil {
		t.Fatalf("failed to add training label: %v", err)
	}
	if label.ID == 0 {
		t.Error("expected label ID to be set")
	}

	labels, err := store.TrainingLabels(track.ID)
	if err != nil {
		t.Fatalf("failed to list training labels: %v", err)
	}
	if len(labels) != 1 {
		t.Fatalf("expected 1 label, got %d", len(labels))
	}
	got := labels[0]
	if got.Label != "breakdown" || got.StartSecs != 90 || got.EndBeat != 256 {
		t.Errorf("label not round-tripped: %+v", got)
	}

	if err := store.DeleteTrainingLabel(got.ID); err != nil {
		t.Fatalf("failed to delete training label: %v", err)
	}
	labels, err = store.TrainingLabels(track.ID)
	if err != nil {
		t.Fatalf("failed to re-list training labels: %v", err)
	}
	if len(labels) != 0 {
		t.Errorf("expected no labels after delete, got %d", len(labels))
	}
}

func TestAddTrainingLabelValidation(t *testing.T) {
	store := openTestStore(t, "test-labels-validation.db")
	track := mustCreateTrack(t, store, "unlabeled")

	err := store.AddTrainingLabel(&TrainingLabel{TrackID: track.ID})
	if !errors.Is(err, util.ErrValidation) {
		t.Errorf("expected ErrValidation for empty label, got %v", err)
	}
}

func TestModelVersionLifecycle(t *testing.T) {
	store := openTestStore(t, "test-models.db")

	if _, err := store.RegisterModelVersion("v1.0", 0.82); err != nil {
		t.Fatalf("failed to register v1.0: %v", err)
	}
	if _, err := store.RegisterModelVersion("v1.1", 0.88); err != nil {
		t.Fatalf("failed to register v1.1: %v", err)
	}

	// Duplicate registration conflicts
	if _, err := store.RegisterModelVersion("v1.0", 0.82); !errors.Is(err, util.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate version, got %v", err)
	}

	// Nothing active until activation
	active, err := store.ActiveModelVersion()
	if err != nil {
		t.Fatalf("failed to get active version: %v", err)
	}
	if active != nil {
		t.Errorf("expected no active version, got %+v", active)
	}

	if err := store.ActivateModelVersion("v1.0"); err != nil {
		t.Fatalf("failed to activate v1.0: %v", err)
	}
	if err := store.ActivateModelVersion("v1.1"); err != nil {
		t.Fatalf("failed to activate v1.1: %v", err)
	}

	// Activating a new version deactivates the previous one
	active, err = store.ActiveModelVersion()
	if err != nil {
		t.Fatalf("failed to get active version: %v", err)
	}
	if active == nil || active.Version != "v1.1" {
		t.Fatalf("expected v1.1 active, got %+v", active)
	}

	versions, err := store.ListModelVersions()
	if err != nil {
		t.Fatalf("failed to list versions: %v", err)
	}
	activeCount := 0
	for _, v := range versions {
		if v.Active {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Errorf("expected exactly 1 active version, got %d", activeCount)
	}
}

func TestActivateUnknownModelVersion(t *testing.T) {
	store := openTestStore(t, "test-models-unknown.db")

	if err := store.ActivateModelVersion("v9.9"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

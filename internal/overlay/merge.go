// Package overlay merges user overrides into computed analysis results.
//
// Edits are applied on every read path that surfaces cues, never baked
// into stored analyses, so a later re-analysis automatically picks up
// prior edits.
package overlay

import (
	"sort"

	"github.com/ParkWardRR/cartomix/internal/store"
)

// MergeCues overlays user cue edits onto the computed cue list.
//
// For each computed cue at position i, an edit at index i replaces the
// non-nil fields. An edit at an index beyond the computed list is
// appended as an additional user-authored cue with no auto-detected
// counterpart.
func MergeCues(computed []store.Cue, edits []*store.CueEdit) []store.Cue {
	merged := make([]store.Cue, len(computed))
	copy(merged, computed)

	var appended []*store.CueEdit
	for _, e := range edits {
		if e.CueIndex < len(merged) {
			applyEdit(&merged[e.CueIndex], e)
		} else {
			appended = append(appended, e)
		}
	}

	// Appended cues keep index order so the result is deterministic
	sort.Slice(appended, func(i, j int) bool {
		return appended[i].CueIndex < appended[j].CueIndex
	})

	for _, e := range appended {
		cue := store.Cue{Index: e.CueIndex}
		applyEdit(&cue, e)
		merged = append(merged, cue)
	}

	return merged
}

func applyEdit(cue *store.Cue, e *store.CueEdit) {
	if e.Type != nil {
		cue.Type = *e.Type
	}
	if e.Label != nil {
		cue.Label = *e.Label
	}
	if e.BeatIndex != nil {
		cue.BeatIndex = *e.BeatIndex
	}
}

// MergedCues loads the latest analysis and cue edits for a track and
// returns the override-applied cue list
func MergedCues(s *store.Store, trackID int64) ([]store.Cue, error) {
	analysis, err := s.LatestAnalysis(trackID)
	if err != nil {
		return nil, err
	}

	edits, err := s.CueEdits(trackID)
	if err != nil {
		return nil, err
	}

	return MergeCues(analysis.Cues, edits), nil
}

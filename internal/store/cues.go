package store

import (
	"fmt"
	"time"

	"github.com/ParkWardRR/cartomix/internal/util"
)

// UpsertCueEdit stores a user override for one cue slot, keyed by
// (track, cue index). Nil fields leave the computed value untouched.
// Idempotent; re-applying the same edit is a no-op.
func (s *Store) UpsertCueEdit(e *CueEdit) error {
	if e.CueIndex < 0 {
		return fmt.Errorf("%w: negative cue index", util.ErrValidation)
	}

	_, err := s.db.Exec(`
		INSERT INTO cue_edits (track_id, cue_index, cue_type, label, beat_index, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(track_id, cue_index) DO UPDATE SET
			cue_type = excluded.cue_type,
			label = excluded.label,
			beat_index = excluded.beat_index,
			updated_at = excluded.updated_at
	`, e.TrackID, e.CueIndex, e.Type, e.Label, e.BeatIndex, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert cue edit: %w", err)
	}
	return nil
}

// DeleteCueEdit removes a single user override. Only explicit user
// removal or track deletion deletes edits; re-analysis never does.
func (s *Store) DeleteCueEdit(trackID int64, cueIndex int) error {
	_, err := s.db.Exec("DELETE FROM cue_edits WHERE track_id = ? AND cue_index = ?", trackID, cueIndex)
	if err != nil {
		return fmt.Errorf("failed to delete cue edit: %w", err)
	}
	return nil
}

// CueEdits returns all user overrides for a track ordered by cue index
func (s *Store) CueEdits(trackID int64) ([]*CueEdit, error) {
	rows, err := s.db.Query(`
		SELECT track_id, cue_index, cue_type, label, beat_index, updated_at
		FROM cue_edits WHERE track_id = ?
		ORDER BY cue_index
	`, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cue edits: %w", err)
	}
	defer rows.Close()

	var edits []*CueEdit
	for rows.Next() {
		e := &CueEdit{}
		if err := rows.Scan(&e.TrackID, &e.CueIndex, &e.Type, &e.Label, &e.BeatIndex, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cue edit: %w", err)
		}
		edits = append(edits, e)
	}

	return edits, rows.Err()
}

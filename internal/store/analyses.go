package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ParkWardRR/cartomix/internal/util"
)

// statusRank orders analysis statuses so out-of-order updates can be
// detected. Complete and failed share the terminal rank.
var statusRank = map[string]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusComplete:   2,
	StatusFailed:     2,
}

// AnalysisResult carries the terminal payload from the analysis pipeline
type AnalysisResult struct {
	DurationSecs      float64
	BPM               float64
	BPMConfidence     float64
	KeyValue          string
	KeyFormat         string
	KeyConfidence     float64
	Energy            int
	LoudnessLUFS      float64
	LoudnessTruePeak  float64
	LoudnessRange     float64
	WaveformJSON      string
	Sections          []Section
	Cues              []Cue
	ContextLabel      string
	ContextConfidence float64
	QAFlags           []string
	Embedding         []float32
}

// BeginAnalysis creates a new pending analysis at max(version)+1 for the
// track. The version read and insert run in one transaction; the store's
// single writer connection makes the sequence race-free.
func (s *Store) BeginAnalysis(trackID int64) (*Analysis, error) {
	if _, err := s.GetTrackByID(trackID); err != nil {
		return nil, err
	}

	var analysisID int64
	var version int

	insert := func(tx *sql.Tx) error {
		err := tx.QueryRow(
			"SELECT COALESCE(MAX(version), 0) + 1 FROM analyses WHERE track_id = ?",
			trackID,
		).Scan(&version)
		if err != nil {
			return fmt.Errorf("failed to read max version: %w", err)
		}

		res, err := tx.Exec(
			"INSERT INTO analyses (track_id, version, status) VALUES (?, ?, ?)",
			trackID, version, StatusPending,
		)
		if err != nil {
			return fmt.Errorf("%w: version %d for track %d: %v",
				util.ErrConflict, version, trackID, err)
		}

		analysisID, err = res.LastInsertId()
		return err
	}

	// A lost version race surfaces as a unique constraint violation;
	// re-read the max and retry once before giving up.
	err := s.Transaction(insert)
	if err != nil {
		if err = s.Transaction(insert); err != nil {
			return nil, err
		}
	}

	return s.GetAnalysisByID(analysisID)
}

// RecordResult applies a status update from the analysis pipeline.
//
// Transitions follow pending -> processing -> {complete, failed}. Updates
// to a terminal analysis return ErrConflict. Out-of-order updates that
// would move status backwards are dropped as duplicates. Locked scalar
// fields keep the value from the previous analysis version. Completing
// with an embedding stores the vector and invalidates the similarity
// cache for the track.
func (s *Store) RecordResult(analysisID int64, status string, result *AnalysisResult) error {
	if _, ok := statusRank[status]; !ok {
		return fmt.Errorf("%w: unknown status %q", util.ErrValidation, status)
	}

	current, err := s.GetAnalysisByID(analysisID)
	if err != nil {
		return err
	}

	if current.Terminal() {
		return fmt.Errorf("%w: analysis %d already %s", util.ErrConflict, analysisID, current.Status)
	}

	if statusRank[status] < statusRank[current.Status] {
		// Stale out-of-order update, dropped by design
		util.DebugLog("Dropping stale status %s for analysis %d (currently %s)",
			status, analysisID, current.Status)
		return nil
	}

	if status != StatusComplete || result == nil {
		_, err := s.db.Exec(
			"UPDATE analyses SET status = ?, updated_at = ? WHERE id = ?",
			status, time.Now(), analysisID,
		)
		if err != nil {
			return fmt.Errorf("failed to update analysis status: %w", err)
		}
		return nil
	}

	// Completing: apply field locks against the previous version's values
	locked, err := s.LockedFields(current.TrackID)
	if err != nil {
		return err
	}
	if len(locked) > 0 {
		if prev, err := s.latestCompleteBefore(current.TrackID, current.Version); err == nil && prev != nil {
			applyFieldLocks(result, prev, locked)
		}
	}

	sectionsJSON, err := json.Marshal(result.Sections)
	if err != nil {
		return fmt.Errorf("%w: sections: %v", util.ErrSerialization, err)
	}
	cuesJSON, err := json.Marshal(result.Cues)
	if err != nil {
		return fmt.Errorf("%w: cues: %v", util.ErrSerialization, err)
	}
	qaJSON, err := json.Marshal(result.QAFlags)
	if err != nil {
		return fmt.Errorf("%w: qa flags: %v", util.ErrSerialization, err)
	}

	hasEmbedding := len(result.Embedding) > 0

	err = s.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE analyses SET
				status = ?,
				duration_secs = ?,
				bpm = ?, bpm_confidence = ?,
				key_value = ?, key_format = ?, key_confidence = ?,
				energy = ?,
				loudness_integrated = ?, loudness_true_peak = ?, loudness_range = ?,
				waveform_json = ?,
				sections_json = ?, cues_json = ?,
				context_label = ?, context_confidence = ?,
				qa_flags_json = ?,
				has_embedding = ?,
				updated_at = ?
			WHERE id = ?
		`, StatusComplete,
			result.DurationSecs,
			result.BPM, result.BPMConfidence,
			result.KeyValue, result.KeyFormat, result.KeyConfidence,
			result.Energy,
			result.LoudnessLUFS, result.LoudnessTruePeak, result.LoudnessRange,
			result.WaveformJSON,
			string(sectionsJSON), string(cuesJSON),
			result.ContextLabel, result.ContextConfidence,
			string(qaJSON),
			hasEmbedding,
			time.Now(),
			analysisID,
		)
		if err != nil {
			return fmt.Errorf("failed to record result: %w", err)
		}

		if hasEmbedding {
			if err := insertEmbedding(tx, current.TrackID, current.Version, result.Embedding); err != nil {
				return err
			}
		}

		// New analysis content makes cached pair scores stale
		return invalidateSimilarity(tx, current.TrackID)
	})
	if err != nil {
		return err
	}

	return s.UpdateTrackTimestamp(current.TrackID)
}

// applyFieldLocks replaces locked scalar fields in the incoming result
// with the values from the previous analysis version
func applyFieldLocks(result *AnalysisResult, prev *Analysis, locked []string) {
	for _, field := range locked {
		switch field {
		case "bpm":
			result.BPM = prev.BPM
			result.BPMConfidence = prev.BPMConfidence
		case "key":
			result.KeyValue = prev.KeyValue
			result.KeyFormat = prev.KeyFormat
			result.KeyConfidence = prev.KeyConfidence
		case "energy":
			result.Energy = prev.Energy
		}
	}
}

const analysisColumns = `
	id, track_id, version, status,
	COALESCE(duration_secs, 0),
	COALESCE(bpm, 0), COALESCE(bpm_confidence, 0),
	COALESCE(key_value, ''), COALESCE(key_format, ''), COALESCE(key_confidence, 0),
	COALESCE(energy, 0),
	COALESCE(loudness_integrated, 0), COALESCE(loudness_true_peak, 0), COALESCE(loudness_range, 0),
	COALESCE(waveform_json, ''),
	COALESCE(sections_json, '[]'), COALESCE(cues_json, '[]'),
	COALESCE(context_label, ''), COALESCE(context_confidence, 0),
	COALESCE(qa_flags_json, '[]'),
	has_embedding, created_at, updated_at`

func scanAnalysis(row interface{ Scan(...any) error }) (*Analysis, error) {
	a := &Analysis{}
	var sectionsJSON, cuesJSON, qaJSON string
	err := row.Scan(
		&a.ID, &a.TrackID, &a.Version, &a.Status,
		&a.DurationSecs,
		&a.BPM, &a.BPMConfidence,
		&a.KeyValue, &a.KeyFormat, &a.KeyConfidence,
		&a.Energy,
		&a.LoudnessLUFS, &a.LoudnessTruePeak, &a.LoudnessRange,
		&a.WaveformJSON,
		&sectionsJSON, &cuesJSON,
		&a.ContextLabel, &a.ContextConfidence,
		&qaJSON,
		&a.HasEmbedding, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(sectionsJSON), &a.Sections); err != nil {
		return nil, fmt.Errorf("failed to decode sections: %w", err)
	}
	if err := json.Unmarshal([]byte(cuesJSON), &a.Cues); err != nil {
		return nil, fmt.Errorf("failed to decode cues: %w", err)
	}
	if err := json.Unmarshal([]byte(qaJSON), &a.QAFlags); err != nil {
		return nil, fmt.Errorf("failed to decode qa flags: %w", err)
	}

	return a, nil
}

// GetAnalysisByID retrieves an analysis by its ID
func (s *Store) GetAnalysisByID(id int64) (*Analysis, error) {
	a, err := scanAnalysis(s.db.QueryRow(
		"SELECT"+analysisColumns+" FROM analyses WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("analysis %d: %w", id, util.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

// LatestAnalysis returns the highest-version analysis for a track,
// whatever its status. Callers must check Status before trusting metric
// fields.
func (s *Store) LatestAnalysis(trackID int64) (*Analysis, error) {
	a, err := scanAnalysis(s.db.QueryRow(
		"SELECT"+analysisColumns+` FROM analyses
		WHERE track_id = ?
		ORDER BY version DESC LIMIT 1`, trackID,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no analysis for track %d: %w", trackID, util.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest analysis: %w", err)
	}
	return a, nil
}

// latestCompleteBefore returns the newest complete analysis with a lower
// version, or nil if none exists
func (s *Store) latestCompleteBefore(trackID int64, version int) (*Analysis, error) {
	a, err := scanAnalysis(s.db.QueryRow(
		"SELECT"+analysisColumns+` FROM analyses
		WHERE track_id = ? AND version < ? AND status = ?
		ORDER BY version DESC LIMIT 1`, trackID, version, StatusComplete,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get previous analysis: %w", err)
	}
	return a, nil
}

// ListAnalyses returns all analysis versions for a track, newest first
func (s *Store) ListAnalyses(trackID int64) ([]*Analysis, error) {
	rows, err := s.db.Query(
		"SELECT"+analysisColumns+` FROM analyses
		WHERE track_id = ?
		ORDER BY version DESC`, trackID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}

	return analyses, rows.Err()
}

// CountAnalysesByStatus returns the number of analyses with a given status
func (s *Store) CountAnalysesByStatus(status string) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM analyses WHERE status = ?", status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}

// LockField marks a scalar field (bpm, key, energy) as protected from
// overwrite by future analysis versions
func (s *Store) LockField(trackID int64, field string) error {
	switch field {
	case "bpm", "key", "energy":
	default:
		return fmt.Errorf("%w: unknown lockable field %q", util.ErrValidation, field)
	}

	_, err := s.db.Exec(`
		INSERT INTO field_locks (track_id, field) VALUES (?, ?)
		ON CONFLICT(track_id, field) DO NOTHING
	`, trackID, field)
	if err != nil {
		return fmt.Errorf("failed to lock field: %w", err)
	}
	return nil
}

// UnlockField removes a field lock
func (s *Store) UnlockField(trackID int64, field string) error {
	_, err := s.db.Exec("DELETE FROM field_locks WHERE track_id = ? AND field = ?", trackID, field)
	if err != nil {
		return fmt.Errorf("failed to unlock field: %w", err)
	}
	return nil
}

// LockedFields returns the locked field names for a track
func (s *Store) LockedFields(trackID int64) ([]string, error) {
	rows, err := s.db.Query("SELECT field FROM field_locks WHERE track_id = ? ORDER BY field", trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query field locks: %w", err)
	}
	defer rows.Close()

	var fields []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("failed to scan field lock: %w", err)
		}
		fields = append(fields, f)
	}

	return fields, rows.Err()
}

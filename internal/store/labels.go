package store

import (
	"database/sql"
	"fmt"

	"github.com/ParkWardRR/cartomix/internal/util"
)

// AddTrainingLabel records a labeled time/beat region on a track
func (s *Store) AddTrainingLabel(l *TrainingLabel) error {
	if l.Label == "" {
		return fmt.Errorf("%w: empty training label", util.ErrValidation)
	}

	res, err := s.db.Exec(`
		INSERT INTO training_labels (track_id, label, start_secs, end_secs, start_beat, end_beat)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.TrackID, l.Label, l.StartSecs, l.EndSecs, l.StartBeat, l.EndBeat)
	if err != nil {
		return fmt.Errorf("failed to insert training label: %w", err)
	}

	l.ID, _ = res.LastInsertId()
	return nil
}

// TrainingLabels returns all labeled regions for a track
func (s *Store) TrainingLabels(trackID int64) ([]*TrainingLabel, error) {
	rows, err := s.db.Query(`
		SELECT id, track_id, label, COALESCE(start_secs, 0), COALESCE(end_secs, 0),
		       COALESCE(start_beat, 0), COALESCE(end_beat, 0), created_at
		FROM training_labels WHERE track_id = ?
		ORDER BY start_secs, id
	`, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query training labels: %w", err)
	}
	defer rows.Close()

	var labels []*TrainingLabel
	for rows.Next() {
		l := &TrainingLabel{}
		err := rows.Scan(&l.ID, &l.TrackID, &l.Label, &l.StartSecs, &l.EndSecs,
			&l.StartBeat, &l.EndBeat, &l.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training label: %w", err)
		}
		labels = append(labels, l)
	}

	return labels, rows.Err()
}

// DeleteTrainingLabel removes a single labeled region
func (s *Store) DeleteTrainingLabel(id int64) error {
	_, err := s.db.Exec("DELETE FROM training_labels WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete training label: %w", err)
	}
	return nil
}

// RegisterModelVersion records a classifier artifact version
func (s *Store) RegisterModelVersion(version string, accuracy float64) (*ModelVersion, error) {
	if version == "" {
		return nil, fmt.Errorf("%w: empty model version", util.ErrValidation)
	}

	res, err := s.db.Exec(`
		INSERT INTO model_versions (version, accuracy) VALUES (?, ?)
	`, version, accuracy)
	if err != nil {
		return nil, fmt.Errorf("%w: model version %q: %v", util.ErrConflict, version, err)
	}

	id, _ := res.LastInsertId()
	return &ModelVersion{ID: id, Version: version, Accuracy: accuracy}, nil
}

// ActivateModelVersion marks one version active and deactivates the rest.
// At most one version is active at a time; enforced here, not by the schema.
func (s *Store) ActivateModelVersion(version string) error {
	return s.Transaction(func(tx *sql.Tx) error {
		res, err := tx.Exec("UPDATE model_versions SET active = 1 WHERE version = ?", version)
		if err != nil {
			return fmt.Errorf("failed to activate model version: %w", err)
		}
		affected, err := res.RowsAffected()
		if err == nil && affected == 0 {
			return fmt.Errorf("model version %q: %w", version, util.ErrNotFound)
		}

		_, err = tx.Exec("UPDATE model_versions SET active = 0 WHERE version != ?", version)
		if err != nil {
			return fmt.Errorf("failed to deactivate model versions: %w", err)
		}
		return nil
	})
}

// ActiveModelVersion returns the currently active classifier version,
// or nil if none is active
func (s *Store) ActiveModelVersion() (*ModelVersion, error) {
	m := &ModelVersion{}
	err := s.db.QueryRow(`
		SELECT id, version, COALESCE(accuracy, 0), active, created_at
		FROM model_versions WHERE active = 1
		ORDER BY id DESC LIMIT 1
	`).Scan(&m.ID, &m.Version, &m.Accuracy, &m.Active, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active model version: %w", err)
	}
	return m, nil
}

// ListModelVersions returns all registered classifier versions, newest first
func (s *Store) ListModelVersions() ([]*ModelVersion, error) {
	rows, err := s.db.Query(`
		SELECT id, version, COALESCE(accuracy, 0), active, created_at
		FROM model_versions ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query model versions: %w", err)
	}
	defer rows.Close()

	var versions []*ModelVersion
	for rows.Next() {
		m := &ModelVersion{}
		if err := rows.Scan(&m.ID, &m.Version, &m.Accuracy, &m.Active, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan model version: %w", err)
		}
		versions = append(versions, m)
	}

	return versions, rows.Err()
}

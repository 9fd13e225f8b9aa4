package store

import (
	"database/sql"
	"fmt"

	"github.com/ParkWardRR/cartomix/internal/util"
)

// CanonicalPair orders two track IDs so the lower one comes first,
// guaranteeing a single cache row per unordered pair
func CanonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// UpsertSimilarity inserts or replaces the cached score for a pair.
// The entry is stored under canonical ordering regardless of how the
// caller ordered TrackA/TrackB.
func (s *Store) UpsertSimilarity(e *SimilarityEntry) error {
	if e.TrackA == e.TrackB {
		return fmt.Errorf("%w: similarity pair must be two distinct tracks", util.ErrValidation)
	}
	a, b := CanonicalPair(e.TrackA, e.TrackB)

	_, err := s.db.Exec(`
		INSERT INTO similarity_cache (track_a, track_b, vibe, tempo, key_score, energy, combined, explanation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(track_a, track_b) DO UPDATE SET
			vibe = excluded.vibe,
			tempo = excluded.tempo,
			key_score = excluded.key_score,
			energy = excluded.energy,
			combined = excluded.combined,
			explanation = excluded.explanation,
			computed_at = CURRENT_TIMESTAMP
	`, a, b, e.Vibe, e.Tempo, e.Key, e.Energy, e.Combined, e.Explanation)
	if err != nil {
		return fmt.Errorf("failed to upsert similarity: %w", err)
	}
	return nil
}

// GetSimilarity returns the cached score for a pair, or nil on a cache miss
func (s *Store) GetSimilarity(trackA, trackB int64) (*SimilarityEntry, error) {
	a, b := CanonicalPair(trackA, trackB)

	e := &SimilarityEntry{}
	err := s.db.QueryRow(`
		SELECT track_a, track_b, vibe, tempo, key_score, energy, combined,
		       COALESCE(explanation, ''), computed_at
		FROM similarity_cache WHERE track_a = ? AND track_b = ?
	`, a, b).Scan(
		&e.TrackA, &e.TrackB, &e.Vibe, &e.Tempo, &e.Key, &e.Energy, &e.Combined,
		&e.Explanation, &e.ComputedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get similarity: %w", err)
	}

	return e, nil
}

// invalidateSimilarity deletes every cached pair touching a track.
// Runs inside the transaction that changed the track's analysis or
// embedding, so readers never see a stale score.
func invalidateSimilarity(tx *sql.Tx, trackID int64) error {
	_, err := tx.Exec("DELETE FROM similarity_cache WHERE track_a = ? OR track_b = ?", trackID, trackID)
	if err != nil {
		return fmt.Errorf("failed to invalidate similarity cache: %w", err)
	}
	return nil
}

// InvalidateSimilarity deletes every cached pair touching a track
func (s *Store) InvalidateSimilarity(trackID int64) error {
	return s.Transaction(func(tx *sql.Tx) error {
		return invalidateSimilarity(tx, trackID)
	})
}

// CountSimilarityEntries returns the number of cached pairs
func (s *Store) CountSimilarityEntries() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM similarity_cache").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count similarity entries: %w", err)
	}
	return count, nil
}

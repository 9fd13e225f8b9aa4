package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ParkWardRR/cartomix/internal/util"
)

// TrackMeta holds the file metadata captured at identification time
type TrackMeta struct {
	Path      string
	Title     string
	Artist    string
	Album     string
	SizeBytes int64
	MtimeUnix int64
}

// IdentifyOrCreateTrack finds a track by content hash or creates it.
// Re-importing identical bytes at a new path updates the existing row
// and returns the same identity.
func (s *Store) IdentifyOrCreateTrack(contentHash string, meta TrackMeta) (*Track, error) {
	if strings.TrimSpace(contentHash) == "" {
		return nil, fmt.Errorf("%w: empty content hash", util.ErrValidation)
	}
	if strings.TrimSpace(meta.Path) == "" {
		return nil, fmt.Errorf("%w: empty path", util.ErrValidation)
	}
	if strings.TrimSpace(meta.Title) == "" {
		return nil, fmt.Errorf("%w: empty title", util.ErrValidation)
	}

	_, err := s.db.Exec(`
		INSERT INTO tracks (content_hash, path, title, artist, album, size_bytes, mtime_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET
			path = excluded.path,
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			size_bytes = excluded.size_bytes,
			mtime_unix = excluded.mtime_unix,
			updated_at = CURRENT_TIMESTAMP
	`, contentHash, meta.Path, meta.Title, meta.Artist, meta.Album, meta.SizeBytes, meta.MtimeUnix)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert track: %w", err)
	}

	return s.GetTrackByHash(contentHash)
}

// GetTrackByHash retrieves a track by its content hash
func (s *Store) GetTrackByHash(contentHash string) (*Track, error) {
	return s.scanTrack(s.db.QueryRow(`
		SELECT id, content_hash, path, title, COALESCE(artist, ''), COALESCE(album, ''),
		       COALESCE(size_bytes, 0), COALESCE(mtime_unix, 0), created_at, updated_at
		FROM tracks WHERE content_hash = ?
	`, contentHash))
}

// GetTrackByID retrieves a track by its ID
func (s *Store) GetTrackByID(id int64) (*Track, error) {
	return s.scanTrack(s.db.QueryRow(`
		SELECT id, content_hash, path, title, COALESCE(artist, ''), COALESCE(album, ''),
		       COALESCE(size_bytes, 0), COALESCE(mtime_unix, 0), created_at, updated_at
		FROM tracks WHERE id = ?
	`, id))
}

func (s *Store) scanTrack(row *sql.Row) (*Track, error) {
	t := &Track{}
	err := row.Scan(
		&t.ID, &t.ContentHash, &t.Path, &t.Title, &t.Artist, &t.Album,
		&t.SizeBytes, &t.MtimeUnix, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("track: %w", util.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}
	return t, nil
}

// GetAllTracks retrieves all tracks ordered by ID
func (s *Store) GetAllTracks() ([]*Track, error) {
	rows, err := s.db.Query(`
		SELECT id, content_hash, path, title, COALESCE(artist, ''), COALESCE(album, ''),
		       COALESCE(size_bytes, 0), COALESCE(mtime_unix, 0), created_at, updated_at
		FROM tracks
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*Track
	for rows.Next() {
		t := &Track{}
		err := rows.Scan(
			&t.ID, &t.ContentHash, &t.Path, &t.Title, &t.Artist, &t.Album,
			&t.SizeBytes, &t.MtimeUnix, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, t)
	}

	return tracks, rows.Err()
}

// UpdateTrackTimestamp bumps updated_at, used when child state changes
func (s *Store) UpdateTrackTimestamp(trackID int64) error {
	_, err := s.db.Exec("UPDATE tracks SET updated_at = ? WHERE id = ?", time.Now(), trackID)
	if err != nil {
		return fmt.Errorf("failed to update track timestamp: %w", err)
	}
	return nil
}

// DeleteTrack removes a track and cascades to analyses, embeddings,
// similarity cache rows, cue edits, field locks, and training labels.
// Verifies no orphans survive the cascade.
func (s *Store) DeleteTrack(trackID int64) error {
	res, err := s.db.Exec("DELETE FROM tracks WHERE id = ?", trackID)
	if err != nil {
		return fmt.Errorf("failed to delete track %d: %w", trackID, err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("track %d: %w", trackID, util.ErrNotFound)
	}

	return s.auditCascade(trackID)
}

// auditCascade checks that no child rows reference a deleted track.
// Unreachable if foreign keys are enforced, but cheap to verify.
func (s *Store) auditCascade(trackID int64) error {
	checks := []struct {
		table string
		query string
	}{
		{"analyses", "SELECT COUNT(*) FROM analyses WHERE track_id = ?"},
		{"embeddings", "SELECT COUNT(*) FROM embeddings WHERE track_id = ?"},
		{"similarity_cache", "SELECT COUNT(*) FROM similarity_cache WHERE track_a = ? OR track_b = ?"},
		{"cue_edits", "SELECT COUNT(*) FROM cue_edits WHERE track_id = ?"},
		{"field_locks", "SELECT COUNT(*) FROM field_locks WHERE track_id = ?"},
		{"training_labels", "SELECT COUNT(*) FROM training_labels WHERE track_id = ?"},
	}

	for _, check := range checks {
		var count int
		var err error
		if check.table == "similarity_cache" {
			err = s.db.QueryRow(check.query, trackID, trackID).Scan(&count)
		} else {
			err = s.db.QueryRow(check.query, trackID).Scan(&count)
		}
		if err != nil {
			return fmt.Errorf("cascade audit query failed for %s: %w", check.table, err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %d orphan rows in %s for track %d",
				util.ErrCascade, count, check.table, trackID)
		}
	}

	return nil
}

// CountTracks returns the total number of tracks
func (s *Store) CountTracks() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM tracks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ParkWardRR/cartomix/internal/util"
)

// encodeVector packs a float32 vector into a little-endian BLOB
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks a little-endian BLOB into a float32 vector
func decodeVector(buf []byte, dims int) ([]float32, error) {
	if len(buf) != dims*4 {
		return nil, fmt.Errorf("vector blob is %d bytes, want %d", len(buf), dims*4)
	}
	vec := make([]float32, dims)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}

// insertEmbedding stores a vector for (track, version) within a transaction
func insertEmbedding(tx *sql.Tx, trackID int64, version int, vec []float32) error {
	_, err := tx.Exec(`
		INSERT INTO embeddings (track_id, version, dims, vector)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(track_id, version) DO UPDATE SET
			dims = excluded.dims,
			vector = excluded.vector
	`, trackID, version, len(vec), encodeVector(vec))
	if err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}
	return nil
}

// PutEmbedding stores a vector for (track, version) and invalidates the
// track's similarity cache rows
func (s *Store) PutEmbedding(trackID int64, version int, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty embedding vector", util.ErrValidation)
	}

	return s.Transaction(func(tx *sql.Tx) error {
		if err := insertEmbedding(tx, trackID, version, vec); err != nil {
			return err
		}
		_, err := tx.Exec("UPDATE analyses SET has_embedding = 1 WHERE track_id = ? AND version = ?",
			trackID, version)
		if err != nil {
			return fmt.Errorf("failed to flag embedding presence: %w", err)
		}
		return invalidateSimilarity(tx, trackID)
	})
}

// GetEmbedding retrieves the vector for a specific (track, version)
func (s *Store) GetEmbedding(trackID int64, version int) (*Embedding, error) {
	var dims int
	var blob []byte
	err := s.db.QueryRow(
		"SELECT dims, vector FROM embeddings WHERE track_id = ? AND version = ?",
		trackID, version,
	).Scan(&dims, &blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("embedding for track %d v%d: %w", trackID, version, util.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}

	vec, err := decodeVector(blob, dims)
	if err != nil {
		return nil, fmt.Errorf("failed to decode embedding: %w", err)
	}

	return &Embedding{TrackID: trackID, Version: version, Vector: vec}, nil
}

// LatestEmbedding retrieves the highest-version vector for a track
func (s *Store) LatestEmbedding(trackID int64) (*Embedding, error) {
	e := &Embedding{TrackID: trackID}
	var dims int
	var blob []byte
	err := s.db.QueryRow(`
		SELECT version, dims, vector FROM embeddings
		WHERE track_id = ?
		ORDER BY version DESC LIMIT 1
	`, trackID).Scan(&e.Version, &dims, &blob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("embedding for track %d: %w", trackID, util.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest embedding: %w", err)
	}

	e.Vector, err = decodeVector(blob, dims)
	if err != nil {
		return nil, fmt.Errorf("failed to decode embedding: %w", err)
	}

	return e, nil
}

// TracksWithEmbeddings returns the IDs of all tracks that have at least
// one stored embedding, ordered by ID
func (s *Store) TracksWithEmbeddings() ([]int64, error) {
	rows, err := s.db.Query("SELECT DISTINCT track_id FROM embeddings ORDER BY track_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query embedded tracks: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan track id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

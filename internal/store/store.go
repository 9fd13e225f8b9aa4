package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	currentSchemaVersion = 2
)

// Analysis status values. Complete and failed are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusComplete   = "complete"
	StatusFailed     = "failed"
)

// Store represents the application's persistent state
type Store struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path
func Open(path string) (*Store, error) {
	// Open with pragmas for performance and reliability
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer connection; reads go through the same pool
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}

	// Cascades depend on foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// CheckIntegrity runs PRAGMA integrity_check on the database
func (s *Store) CheckIntegrity() error {
	var result string
	err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result)
	if err != nil {
		return fmt.Errorf("integrity check query failed: %w", err)
	}

	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	return nil
}

// migrate applies database migrations
func (s *Store) migrate() error {
	version, err := s.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if err := s.setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if version < 2 {
		if _, err := tx.Exec(schemaV2); err != nil {
			return fmt.Errorf("failed to apply schema v2: %w", err)
		}
		if err := s.setSchemaVersion(tx, 2); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (s *Store) getSchemaVersion() (int, error) {
	var exists int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		return 0, nil
	}

	var version int
	err = s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func (s *Store) setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// Transaction executes a function within a transaction
func (s *Store) Transaction(fn func(*sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Track represents an audio file identified by its content hash
type Track struct {
	ID          int64
	ContentHash string
	Path        string
	Title       string
	Artist      string
	Album       string
	SizeBytes   int64
	MtimeUnix   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Cue is a single cue point within a track, ordered by index
type Cue struct {
	Index     int     `json:"index"`
	Type      string  `json:"type"`
	Label     string  `json:"label"`
	BeatIndex int     `json:"beat_index"`
	TimeSecs  float64 `json:"time_secs"`
}

// Section is a structural region of a track (intro, drop, breakdown, ...)
type Section struct {
	Label     string  `json:"label"`
	StartSecs float64 `json:"start_secs"`
	EndSecs   float64 `json:"end_secs"`
}

// Analysis is one versioned analysis snapshot for a track
type Analysis struct {
	ID                int64
	TrackID           int64
	Version           int
	Status            string
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
	HasEmbedding      bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Terminal reports whether the analysis has reached a terminal status
func (a *Analysis) Terminal() bool {
	return a.Status == StatusComplete || a.Status == StatusFailed
}

// Embedding is a fixed-length float vector for one analysis version
type Embedding struct {
	TrackID int64
	Version int
	Vector  []float32
}

// SimilarityEntry is one cached pairwise score, TrackA < TrackB
type SimilarityEntry struct {
	TrackA      int64
	TrackB      int64
	Vibe        float64
	Tempo       float64
	Key         float64
	Energy      float64
	Combined    float64
	Explanation string
	ComputedAt  time.Time
}

// CueEdit is a user override for one cue slot; nil fields leave the
// computed value untouched
type CueEdit struct {
	TrackID   int64
	CueIndex  int
	Type      *string
	Label     *string
	BeatIndex *int
	UpdatedAt time.Time
}

// TrainingLabel is a labeled time/beat region used for classifier retraining
type TrainingLabel struct {
	ID        int64
	TrackID   int64
	Label     string
	StartSecs float64
	EndSecs   float64
	StartBeat int
	EndBeat   int
	CreatedAt time.Time
}

// ModelVersion is a versioned classifier artifact
type ModelVersion struct {
	ID        int64
	Version   string
	Accuracy  float64
	Active    bool
	CreatedAt time.Time
}

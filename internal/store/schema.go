package store

// Schema v1 - Initial database schema
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Tracks identified by content hash (stable across moves/renames)
CREATE TABLE IF NOT EXISTS tracks (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  content_hash TEXT UNIQUE NOT NULL,
  path TEXT NOT NULL,
  title TEXT NOT NULL,
  artist TEXT,
  album TEXT,
  size_bytes INTEGER,
  mtime_unix INTEGER,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tracks_content_hash ON tracks(content_hash);

-- Versioned analysis snapshots, one row per (track, version)
CREATE TABLE IF NOT EXISTS analyses (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  track_id INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
  version INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  duration_secs REAL,
  bpm REAL,
  bpm_confidence REAL,
  key_value TEXT,
  key_format TEXT,
  key_confidence REAL,
  energy INTEGER,
  loudness_integrated REAL,
  loudness_true_peak REAL,
  loudness_range REAL,
  waveform_json TEXT,
  sections_json TEXT,
  cues_json TEXT,
  context_label TEXT,
  context_confidence REAL,
  qa_flags_json TEXT,
  has_embedding INTEGER DEFAULT 0,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(track_id, version)
);

CREATE INDEX IF NOT EXISTS idx_analyses_track ON analyses(track_id);
CREATE INDEX IF NOT EXISTS idx_analyses_status ON analyses(status);

-- Embedding vectors keyed by (track, analysis version)
CREATE TABLE IF NOT EXISTS embeddings (
  track_id INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
  version INTEGER NOT NULL,
  dims INTEGER NOT NULL,
  vector BLOB NOT NULL,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (track_id, version)
);

-- Pairwise similarity cache, one row per unordered pair (lower id first)
CREATE TABLE IF NOT EXISTS similarity_cache (
  track_a INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
  track_b INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
  vibe REAL NOT NULL,
  tempo REAL NOT NULL,
  key_score REAL NOT NULL,
  energy REAL NOT NULL,
  combined REAL NOT NULL,
  explanation TEXT,
  computed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (track_a, track_b),
  CHECK (track_a < track_b)
);

-- User cue overrides, survive re-analysis
CREATE TABLE IF NOT EXISTS cue_edits (
  track_id INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
  cue_index INTEGER NOT NULL,
  cue_type TEXT,
  label TEXT,
  beat_index INTEGER,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (track_id, cue_index)
);

-- Scalar fields locked against overwrite by re-analysis
CREATE TABLE IF NOT EXISTS field_locks (
  track_id INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
  field TEXT NOT NULL,
  PRIMARY KEY (track_id, field)
);

-- Labeled time/beat regions for classifier retraining
CREATE TABLE IF NOT EXISTS training_labels (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  track_id INTEGER NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
  label TEXT NOT NULL,
  start_secs REAL,
  end_secs REAL,
  start_beat INTEGER,
  end_beat INTEGER,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_training_labels_track ON training_labels(track_id);

-- Versioned classifier artifacts
CREATE TABLE IF NOT EXISTS model_versions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  version TEXT UNIQUE NOT NULL,
  accuracy REAL,
  active INTEGER DEFAULT 0,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

// Schema v2 - Performance indexes for latest-version reads and cache invalidation
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_analyses_track_version ON analyses(track_id, version DESC);
CREATE INDEX IF NOT EXISTS idx_similarity_track_b ON similarity_cache(track_b);
CREATE INDEX IF NOT EXISTS idx_cue_edits_track ON cue_edits(track_id);
`

package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ParkWardRR/cartomix/internal/store"
)

// JSON backup format: deterministic key ordering (struct field order)
// and RFC 3339 timestamps, byte-stable for identical input.

type jsonDoc struct {
	Name       string      `json:"name"`
	ExportedAt string      `json:"exported_at"`
	Tracks     []jsonTrack `json:"tracks"`
}

type jsonTrack struct {
	TrackID      int64       `json:"track_id"`
	ContentHash  string      `json:"content_hash"`
	Path         string      `json:"path"`
	Title        string      `json:"title"`
	Artist       string      `json:"artist,omitempty"`
	Album        string      `json:"album,omitempty"`
	DurationSecs float64     `json:"duration_secs"`
	BPM          float64     `json:"bpm"`
	Key          string      `json:"key,omitempty"`
	Energy       int         `json:"energy"`
	Cues         []store.Cue `json:"cues,omitempty"`
	AnalyzedAt   string      `json:"analyzed_at,omitempty"`
}

func writeJSON(w io.Writer, name string, tracks []*TrackView) error {
	doc := jsonDoc{
		Name:       name,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	}

	for _, t := range tracks {
		jt := jsonTrack{
			TrackID:      t.TrackID,
			ContentHash:  t.ContentHash,
			Path:         t.Path,
			Title:        t.Title,
			Artist:       t.Artist,
			Album:        t.Album,
			DurationSecs: t.DurationSecs,
			BPM:          t.BPM,
			Key:          t.Key,
			Energy:       t.Energy,
			Cues:         t.Cues,
		}
		if !t.AnalyzedAt.IsZero() {
			jt.AnalyzedAt = t.AnalyzedAt.UTC().Format(time.RFC3339)
		}
		doc.Tracks = append(doc.Tracks, jt)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// ParseJSON reads back a JSON export, for verification round-trips
func ParseJSON(r io.Reader) (string, []*TrackView, error) {
	var doc jsonDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return "", nil, fmt.Errorf("json decode: %w", err)
	}

	tracks := make([]*TrackView, 0, len(doc.Tracks))
	for _, jt := range doc.Tracks {
		view := &TrackView{
			TrackID:      jt.TrackID,
			ContentHash:  jt.ContentHash,
			Path:         jt.Path,
			Title:        jt.Title,
			Artist:       jt.Artist,
			Album:        jt.Album,
			DurationSecs: jt.DurationSecs,
			BPM:          jt.BPM,
			Key:          jt.Key,
			Energy:       jt.Energy,
			Cues:         jt.Cues,
		}
		if jt.AnalyzedAt != "" {
			if ts, err := time.Parse(time.RFC3339, jt.AnalyzedAt); err == nil {
				view.AnalyzedAt = ts
			}
		}
		tracks = append(tracks, view)
	}

	return doc.Name, tracks, nil
}

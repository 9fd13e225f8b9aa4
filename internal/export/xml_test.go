package export

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
)

func TestWriteRekordboxStructure(t *testing.T) {
	var buf bytes.Buffer
	if err := writeRekordbox(&buf, "warmup", testTracks()); err != nil {
		t.Fatalf("failed to write rekordbox xml: %v", err)
	}

	output := buf.String()
	if !strings.HasPrefix(output, xml.Header) {
		t.Error("expected XML declaration header")
	}

	var doc rbPlaylists
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid XML: %v", err)
	}

	if doc.Collection.Entries != 2 || len(doc.Collection.Tracks) != 2 {
		t.Errorf("expected 2 collection entries, got %d/%d",
			doc.Collection.Entries, len(doc.Collection.Tracks))
	}

	first := doc.Collection.Tracks[0]
	if first.Name != "Opener" || first.Tonality != "8A" {
		t.Errorf("track attributes wrong: %+v", first)
	}
	if first.Location != "file://localhost/music/opener.mp3" {
		t.Errorf("unexpected location %q", first.Location)
	}
	if len(first.Tempo) != 1 || first.Tempo[0].Bpm != "120.00" {
		t.Errorf("tempo not rendered: %+v", first.Tempo)
	}
	if len(first.Marks) != 1 || first.Marks[0].Name != "Mix In" {
		t.Errorf("cue marks not rendered: %+v", first.Marks)
	}

	if doc.Playlists.Node.Name != "warmup" || len(doc.Playlists.Node.Keys) != 2 {
		t.Errorf("playlist node wrong: %+v", doc.Playlists.Node)
	}
}

func TestWriteTraktorStructure(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTraktor(&buf, "peak", testTracks()); err != nil {
		t.Fatalf("failed to write traktor nml: %v", err)
	}

	var doc nmlDoc
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid XML: %v", err)
	}

	if doc.Collection.Entries != 2 || len(doc.Collection.Entry) != 2 {
		t.Errorf("expected 2 entries, got %d/%d", doc.Collection.Entries, len(doc.Collection.Entry))
	}

	first := doc.Collection.Entry[0]
	if first.Title != "Opener" || first.Location.File != "opener.mp3" {
		t.Errorf("entry attributes wrong: %+v", first)
	}
	if first.Tempo == nil || first.Tempo.BPM != "120.00" {
		t.Errorf("tempo not rendered: %+v", first.Tempo)
	}
	// 8A is A minor, Traktor musical key 21
	if first.Key.Value != 21 {
		t.Errorf("expected key 21 for 8A, got %d", first.Key.Value)
	}
	// Cue start is in milliseconds
	if len(first.Cues) != 1 || first.Cues[0].Start != "15000.000" {
		t.Errorf("cue not rendered in ms: %+v", first.Cues)
	}

	if doc.Playlists.Node.Name != "peak" {
		t.Errorf("playlist node wrong: %+v", doc.Playlists.Node)
	}
}

func TestTraktorKeyMapping(t *testing.T) {
	cases := []struct {
		key  string
		want int
	}{
		{"8B", 0},  // C major
		{"8A", 21}, // A minor
		{"5A", 12}, // C minor
		{"1B", 11}, // B major
		{"junk", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := traktorKey(tc.key); got != tc.want {
			t.Errorf("traktorKey(%q): expected %d, got %d", tc.key, tc.want, got)
		}
	}
}

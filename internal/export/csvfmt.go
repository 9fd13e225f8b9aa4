package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSV export: header row plus one row per track. encoding/csv doubles
// embedded quotes per RFC 4180.
func writeCSV(w io.Writer, tracks []*TrackView) error {
	cw := csv.NewWriter(w)

	header := []string{"track_id", "title", "artist", "album", "path", "duration_secs", "bpm", "key", "energy", "cue_count"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}

	for _, t := range tracks {
		row := []string{
			strconv.FormatInt(t.TrackID, 10),
			t.Title,
			t.Artist,
			t.Album,
			t.Path,
			strconv.FormatFloat(t.DurationSecs, 'f', 3, 64),
			strconv.FormatFloat(t.BPM, 'f', 2, 64),
			t.Key,
			strconv.Itoa(t.Energy),
			strconv.Itoa(len(t.Cues)),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

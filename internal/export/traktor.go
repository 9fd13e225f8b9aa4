package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"

	"github.com/ParkWardRR/cartomix/internal/similarity"
)

// Traktor NML document

type nmlDoc struct {
	XMLName    xml.Name      `xml:"NML"`
	Version    string        `xml:"VERSION,attr"`
	Collection nmlCollection `xml:"COLLECTION"`
	Playlists  nmlPlaylists  `xml:"PLAYLISTS"`
}

type nmlCollection struct {
	Entries int        `xml:"ENTRIES,attr"`
	Entry   []nmlEntry `xml:"ENTRY"`
}

type nmlEntry struct {
	Title    string      `xml:"TITLE,attr"`
	Artist   string      `xml:"ARTIST,attr"`
	Location nmlLocation `xml:"LOCATION"`
	Album    *nmlAlbum   `xml:"ALBUM,omitempty"`
	Info     nmlInfo     `xml:"INFO"`
	Tempo    *nmlTempo   `xml:"TEMPO,omitempty"`
	Key      nmlKey      `xml:"MUSICAL_KEY"`
	Cues     []nmlCue    `xml:"CUE_V2"`
}

type nmlLocation struct {
	Dir    string `xml:"DIR,attr"`
	File   string `xml:"FILE,attr"`
	Volume string `xml:"VOLUME,attr"`
}

type nmlAlbum struct {
	Title string `xml:"TITLE,attr"`
}

type nmlInfo struct {
	PlayTime int `xml:"PLAYTIME,attr"`
	Ranking  int `xml:"RANKING,attr"`
}

type nmlTempo struct {
	BPM string `xml:"BPM,attr"`
}

type nmlKey struct {
	Value int `xml:"VALUE,attr"`
}

type nmlCue struct {
	Name    string `xml:"NAME,attr"`
	Type    int    `xml:"TYPE,attr"`
	Start   string `xml:"START,attr"`
	Hotcue  int    `xml:"HOTCUE,attr"`
}

type nmlPlaylists struct {
	Node nmlPlaylistNode `xml:"NODE"`
}

type nmlPlaylistNode struct {
	Type string `xml:"TYPE,attr"`
	Name string `xml:"NAME,attr"`
}

// camelot letter+number to the Traktor 0-23 musical key scale:
// 0-11 are the major keys C..B, 12-23 the minors Cm..Bm
var camelotMajorToTraktor = map[int]int{
	1: 11, 2: 6, 3: 1, 4: 8, 5: 3, 6: 10, 7: 5, 8: 0, 9: 7, 10: 2, 11: 9, 12: 4,
}

var camelotMinorToTraktor = map[int]int{
	1: 20, 2: 15, 3: 22, 4: 17, 5: 12, 6: 19, 7: 14, 8: 21, 9: 16, 10: 23, 11: 18, 12: 13,
}

// traktorKey maps a Camelot key onto Traktor's 0-23 integer scale; keys
// that fail to parse fall back to 0
func traktorKey(key string) int {
	k, err := similarity.ParseCamelot(key)
	if err != nil {
		return 0
	}
	if k.Letter == 'B' {
		return camelotMajorToTraktor[k.Number]
	}
	return camelotMinorToTraktor[k.Number]
}

func writeTraktor(w io.Writer, name string, tracks []*TrackView) error {
	doc := nmlDoc{
		Version: "19",
		Collection: nmlCollection{
			Entries: len(tracks),
		},
		Playlists: nmlPlaylists{
			Node: nmlPlaylistNode{Type: "PLAYLIST", Name: name},
		},
	}

	for _, t := range tracks {
		entry := nmlEntry{
			Title:  t.Title,
			Artist: t.Artist,
			Location: nmlLocation{
				Dir:  filepath.Dir(t.Path) + "/",
				File: filepath.Base(t.Path),
			},
			Info: nmlInfo{PlayTime: int(t.DurationSecs)},
			Key:  nmlKey{Value: traktorKey(t.Key)},
		}
		if t.Album != "" {
			entry.Album = &nmlAlbum{Title: t.Album}
		}
		if t.BPM > 0 {
			entry.Tempo = &nmlTempo{BPM: fmt.Sprintf("%.2f", t.BPM)}
		}
		for _, cue := range t.Cues {
			entry.Cues = append(entry.Cues, nmlCue{
				Name:   cue.Label,
				Type:   0,
				Start:  fmt.Sprintf("%.3f", cue.TimeSecs*1000),
				Hotcue: cue.Index,
			})
		}
		doc.Collection.Entry = append(doc.Collection.Entry, entry)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("traktor encode: %w", err)
	}

	_, err := io.WriteString(w, "\n")
	return err
}

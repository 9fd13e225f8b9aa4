package export

import (
	"encoding/xml"
	"fmt"
	"io"
)

// Rekordbox collection XML (DJ_PLAYLISTS schema)

type rbPlaylists struct {
	XMLName    xml.Name     `xml:"DJ_PLAYLISTS"`
	Version    string       `xml:"Version,attr"`
	Product    rbProduct    `xml:"PRODUCT"`
	Collection rbCollection `xml:"COLLECTION"`
	Playlists  rbNodeRoot   `xml:"PLAYLISTS"`
}

type rbProduct struct {
	Name    string `xml:"Name,attr"`
	Version string `xml:"Version,attr"`
}

type rbCollection struct {
	Entries int       `xml:"Entries,attr"`
	Tracks  []rbTrack `xml:"TRACK"`
}

type rbTrack struct {
	TrackID   int64          `xml:"TrackID,attr"`
	Name      string         `xml:"Name,attr"`
	Artist    string         `xml:"Artist,attr"`
	Album     string         `xml:"Album,attr"`
	Location  string         `xml:"Location,attr"`
	TotalTime int            `xml:"TotalTime,attr"`
	Tonality  string         `xml:"Tonality,attr"`
	Tempo     []rbTempo      `xml:"TEMPO"`
	Marks     []rbPositionMk `xml:"POSITION_MARK"`
}

type rbTempo struct {
	Inizio string `xml:"Inizio,attr"`
	Bpm    string `xml:"Bpm,attr"`
}

type rbPositionMk struct {
	Name  string `xml:"Name,attr"`
	Type  string `xml:"Type,attr"`
	Start string `xml:"Start,attr"`
	Num   int    `xml:"Num,attr"`
}

type rbNodeRoot struct {
	Node rbNode `xml:"NODE"`
}

type rbNode struct {
	Type    string       `xml:"Type,attr"`
	Name    string       `xml:"Name,attr"`
	Entries int          `xml:"Entries,attr"`
	Keys    []rbTrackKey `xml:"TRACK"`
}

type rbTrackKey struct {
	Key int64 `xml:"Key,attr"`
}

func writeRekordbox(w io.Writer, name string, tracks []*TrackView) error {
	doc := rbPlaylists{
		Version: "1.0.0",
		Product: rbProduct{Name: "cartomix", Version: "1.0"},
		Collection: rbCollection{
			Entries: len(tracks),
		},
		Playlists: rbNodeRoot{
			Node: rbNode{Type: "1", Name: name, Entries: len(tracks)},
		},
	}

	for _, t := range tracks {
		rt := rbTrack{
			TrackID:   t.TrackID,
			Name:      t.Title,
			Artist:    t.Artist,
			Album:     t.Album,
			Location:  "file://localhost" + t.Path,
			TotalTime: int(t.DurationSecs),
			Tonality:  t.Key,
		}
		if t.BPM > 0 {
			rt.Tempo = append(rt.Tempo, rbTempo{
				Inizio: "0.000",
				Bpm:    fmt.Sprintf("%.2f", t.BPM),
			})
		}
		for _, cue := range t.Cues {
			rt.Marks = append(rt.Marks, rbPositionMk{
				Name:  cue.Label,
				Type:  "0",
				Start: fmt.Sprintf("%.3f", cue.TimeSecs),
				Num:   cue.Index,
			})
		}
		doc.Collection.Tracks = append(doc.Collection.Tracks, rt)
		doc.Playlists.Node.Keys = append(doc.Playlists.Node.Keys, rbTrackKey{Key: t.TrackID})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("rekordbox encode: %w", err)
	}

	_, err := io.WriteString(w, "\n")
	return err
}

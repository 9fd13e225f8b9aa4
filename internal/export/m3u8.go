package export

import (
	"fmt"
	"io"
	"strings"
)

// M3U8 playlist: header line, playlist name comment, then one
// #EXTINF + path pair per track. Durations are truncated to whole
// seconds per the EXTINF convention.
func writeM3U8(w io.Writer, name string, tracks []*TrackView) error {
	var b strings.Builder

	b.WriteString("#EXTM3U\n")
	fmt.Fprintf(&b, "# Playlist: %s\n", name)

	for _, t := range tracks {
		display := t.Title
		if t.Artist != "" {
			display = t.Artist + " - " + t.Title
		}
		fmt.Fprintf(&b, "#EXTINF:%d,%s\n", int(t.DurationSecs), display)
		b.WriteString(t.Path)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

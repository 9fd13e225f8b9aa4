package export

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf16"
)

// Serato crate format: big-endian tagged records, 4-byte tag + uint32
// payload length + payload. Text payloads are UTF-16BE.

const seratoCrateVersion = "1.0/Serato ScratchLive Crate"

func writeTag(w io.Writer, tag string, payload []byte) error {
	if len(tag) != 4 {
		return fmt.Errorf("serato tag %q must be 4 bytes", tag)
	}
	if _, err := io.WriteString(w, tag); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func utf16Payload(s string) []byte {
	codes := utf16.Encode([]rune(s))
	buf := make([]byte, 2*len(codes))
	for i, c := range codes {
		binary.BigEndian.PutUint16(buf[i*2:], c)
	}
	return buf
}

// writeSeratoCrate writes the primary binary crate file: a version
// record followed by one track record per entry, each wrapping a path
// record
func writeSeratoCrate(w io.Writer, tracks []*TrackView) error {
	if err := writeTag(w, "vrsn", utf16Payload(seratoCrateVersion)); err != nil {
		return fmt.Errorf("serato crate version: %w", err)
	}

	for _, t := range tracks {
		var inner []byte
		path := utf16Payload(t.Path)

		header := make([]byte, 8)
		copy(header, "ptrk")
		binary.BigEndian.PutUint32(header[4:], uint32(len(path)))

		inner = append(inner, header...)
		inner = append(inner, path...)

		if err := writeTag(w, "otrk", inner); err != nil {
			return fmt.Errorf("serato crate track: %w", err)
		}
	}

	return nil
}

// writeSeratoCues writes the supplementary cues sidecar: a magic header,
// a uint32 record count, then fixed-layout records of
// (track index, cue index, beat index, label length, label bytes)
func writeSeratoCues(w io.Writer, tracks []*TrackView) error {
	if _, err := io.WriteString(w, "CMXC"); err != nil {
		return err
	}

	var count uint32
	for _, t := range tracks {
		count += uint32(len(t.Cues))
	}
	if err := binary.Write(w, binary.BigEndian, count); err != nil {
		return err
	}

	for trackIdx, t := range tracks {
		for _, cue := range t.Cues {
			if err := binary.Write(w, binary.BigEndian, uint32(trackIdx)); err != nil {
				return err
			}
			if err := binary.Write(w, binary.BigEndian, uint32(cue.Index)); err != nil {
				return err
			}
			if err := binary.Write(w, binary.BigEndian, uint32(cue.BeatIndex)); err != nil {
				return err
			}
			label := []byte(cue.Label)
			if err := binary.Write(w, binary.BigEndian, uint32(len(label))); err != nil {
				return err
			}
			if _, err := w.Write(label); err != nil {
				return err
			}
		}
	}

	return nil
}

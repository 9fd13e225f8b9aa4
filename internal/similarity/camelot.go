package similarity

import (
	"fmt"
	"strconv"
	"strings"
)

// CamelotKey is a position on the 12x2 Camelot wheel (1A-12B)
type CamelotKey struct {
	Number int  // 1-12
	Letter byte // 'A' (minor) or 'B' (major)
}

// ParseCamelot parses notation like "8A" or "12b"
func ParseCamelot(s string) (CamelotKey, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return CamelotKey{}, fmt.Errorf("invalid camelot key %q", s)
	}

	letter := s[len(s)-1]
	if letter != 'A' && letter != 'B' {
		return CamelotKey{}, fmt.Errorf("invalid camelot letter in %q", s)
	}

	number, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || number < 1 || number > 12 {
		return CamelotKey{}, fmt.Errorf("invalid camelot number in %q", s)
	}

	return CamelotKey{Number: number, Letter: letter}, nil
}

// String renders the key in standard notation
func (k CamelotKey) String() string {
	return fmt.Sprintf("%d%c", k.Number, k.Letter)
}

// wheelDistance is the circular distance between two wheel numbers, 0-6
func wheelDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if d > 6 {
		d = 12 - d
	}
	return d
}

// KeyCompatibility scores harmonic mixing compatibility on the Camelot
// wheel, normalized to [0,1].
//
// Identical keys score 1.0; the relative major/minor pair (same number,
// other letter) and a neighbouring number with the same letter both 0.8.
// Everything else decays with circular wheel distance down to 0.
func KeyCompatibility(a, b CamelotKey) float64 {
	d := wheelDistance(a.Number, b.Number)

	if a.Letter == b.Letter {
		switch d {
		case 0:
			return 1.0
		case 1:
			return 0.8
		}
		return clamp01(0.6 - 0.15*float64(d-1))
	}

	if d == 0 {
		return 0.8
	}
	return clamp01(0.4 - 0.15*float64(d-1))
}

// Compatible reports whether two keys mix harmonically (identical,
// relative major/minor, or neighbouring on the wheel)
func Compatible(a, b CamelotKey) bool {
	return KeyCompatibility(a, b) >= 0.6
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

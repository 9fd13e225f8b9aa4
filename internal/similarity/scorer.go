package similarity

import (
	"fmt"
	"math"
	"strings"
)

// Default tuning constants for the component scores
const (
	DefaultTempoWindow = 8.0 // BPM difference that zeroes the tempo score
	DefaultEnergyRange = 9.0 // size of the 1-10 global energy scale
)

// Component weights for the combined score
const (
	weightVibe   = 0.50
	weightTempo  = 0.20
	weightKey    = 0.20
	weightEnergy = 0.10
)

// TrackProfile is the slice of analysis data the scorer needs
type TrackProfile struct {
	TrackID   int64
	BPM       float64
	Key       string
	Energy    int
	Embedding []float32
}

// Scores holds the component and combined similarity scores, each in [0,1]
type Scores struct {
	Vibe     float64
	Tempo    float64
	Key      float64
	Energy   float64
	Combined float64
}

// Scorer computes pairwise similarity scores
type Scorer struct {
	tempoWindow float64
	energyRange float64
}

// NewScorer creates a scorer with the given tuning; zero values fall
// back to the defaults
func NewScorer(tempoWindow, energyRange float64) *Scorer {
	if tempoWindow <= 0 {
		tempoWindow = DefaultTempoWindow
	}
	if energyRange <= 0 {
		energyRange = DefaultEnergyRange
	}
	return &Scorer{tempoWindow: tempoWindow, energyRange: energyRange}
}

// Score computes all component scores and the weighted combination.
// Symmetric: Score(a, b) == Score(b, a) component-wise.
func (sc *Scorer) Score(a, b *TrackProfile) Scores {
	s := Scores{
		Vibe:   CosineSimilarity(a.Embedding, b.Embedding),
		Tempo:  sc.tempoScore(a.BPM, b.BPM),
		Key:    sc.keyScore(a.Key, b.Key),
		Energy: sc.energyScore(a.Energy, b.Energy),
	}
	s.Combined = weightVibe*s.Vibe + weightTempo*s.Tempo + weightKey*s.Key + weightEnergy*s.Energy
	return s
}

// CosineSimilarity is the cosine of two embedding vectors clamped to
// [0,1]; negative cosine floors at 0. Mismatched or empty vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return clamp01(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func (sc *Scorer) tempoScore(bpmA, bpmB float64) float64 {
	return clamp01(1 - math.Abs(bpmA-bpmB)/sc.tempoWindow)
}

func (sc *Scorer) keyScore(keyA, keyB string) float64 {
	a, errA := ParseCamelot(keyA)
	b, errB := ParseCamelot(keyB)
	if errA != nil || errB != nil {
		return 0
	}
	return KeyCompatibility(a, b)
}

func (sc *Scorer) energyScore(energyA, energyB int) float64 {
	return clamp01(1 - math.Abs(float64(energyA-energyB))/sc.energyRange)
}

// Explain renders a fixed-template, deterministic rationale for a pair,
// e.g. "similar vibe (90%); Δ+2 BPM; key: 8A→9A (compatible); energy +1"
func Explain(scores Scores, a, b *TrackProfile) string {
	parts := []string{
		fmt.Sprintf("similar vibe (%d%%)", int(math.Round(scores.Vibe*100))),
		fmt.Sprintf("Δ%+d BPM", int(math.Round(b.BPM-a.BPM))),
	}

	keyA, errA := ParseCamelot(a.Key)
	keyB, errB := ParseCamelot(b.Key)
	if errA == nil && errB == nil {
		relation := "clash"
		if Compatible(keyA, keyB) {
			relation = "compatible"
		}
		parts = append(parts, fmt.Sprintf("key: %s→%s (%s)", keyA, keyB, relation))
	} else {
		parts = append(parts, "key: unknown")
	}

	parts = append(parts, fmt.Sprintf("energy %+d", b.Energy-a.Energy))

	return strings.Join(parts, "; ")
}

package similarity

import (
	"math"
	"testing"
)

func TestScoreConcretePair(t *testing.T) {
	// Embeddings chosen so cosine(eA, eB) = 0.90 exactly
	a := &TrackProfile{
		TrackID: 1, BPM: 120, Key: "8A", Energy: 5,
		Embedding: []float32{1, 0},
	}
	b := &TrackProfile{
		TrackID: 2, BPM: 122, Key: "9A", Energy: 6,
		Embedding: []float32{0.9, float32(math.Sqrt(1 - 0.81))},
	}

	sc := NewScorer(0, 0)
	scores := sc.Score(a, b)

	if math.Abs(scores.Vibe-0.90) > 1e-6 {
		t.Errorf("expected vibe 0.90, got %v", scores.Vibe)
	}
	if math.Abs(scores.Tempo-0.75) > 1e-9 {
		t.Errorf("expected tempo 0.75, got %v", scores.Tempo)
	}
	if math.Abs(scores.Key-0.8) > 1e-9 {
		t.Errorf("expected key 0.8, got %v", scores.Key)
	}
	if math.Abs(scores.Energy-(1-1.0/9)) > 1e-9 {
		t.Errorf("expected energy %v, got %v", 1-1.0/9, scores.Energy)
	}

	wantCombined := 0.5*0.90 + 0.2*0.75 + 0.2*0.8 + 0.1*(1-1.0/9)
	if math.Abs(scores.Combined-wantCombined) > 1e-6 {
		t.Errorf("expected combined %v, got %v", wantCombined, scores.Combined)
	}

	explanation := Explain(scores, a, b)
	want := "similar vibe (90%); Δ+2 BPM; key: 8A→9A (compatible); energy +1"
	if explanation != want {
		t.Errorf("expected explanation %q, got %q", want, explanation)
	}
}

func TestScoreSymmetric(t *testing.T) {
	a := &TrackProfile{TrackID: 1, BPM: 126, Key: "3B", Energy: 8, Embedding: []float32{0.2, 0.7, 0.1}}
	b := &TrackProfile{TrackID: 2, BPM: 131, Key: "5A", Energy: 4, Embedding: []float32{0.6, 0.1, 0.4}}

	sc := NewScorer(0, 0)
	ab := sc.Score(a, b)
	ba := sc.Score(b, a)

	if ab != ba {
		t.Errorf("score not symmetric: %+v vs %+v", ab, ba)
	}
}

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"opposite floors at zero", []float32{1, 0}, []float32{-1, 0}, 0.0},
		{"empty", nil, nil, 0.0},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0.0},
		{"zero norm", []float32{0, 0}, []float32{1, 0}, 0.0},
	}
	for _, tc := range cases {
		got := CosineSimilarity(tc.a, tc.b)
		if math.Abs(got-tc.want) > 1e-6 {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestTempoScoreWindow(t *testing.T) {
	sc := NewScorer(8, 9)

	if got := sc.tempoScore(120, 120); got != 1.0 {
		t.Errorf("equal tempo should score 1.0, got %v", got)
	}
	if got := sc.tempoScore(120, 124); got != 0.5 {
		t.Errorf("half window should score 0.5, got %v", got)
	}
	// At and beyond the window the score floors at zero
	if got := sc.tempoScore(120, 128); got != 0.0 {
		t.Errorf("full window should score 0.0, got %v", got)
	}
	if got := sc.tempoScore(120, 160); got != 0.0 {
		t.Errorf("beyond window should score 0.0, got %v", got)
	}
}

func TestKeyScoreUnparseable(t *testing.T) {
	sc := NewScorer(0, 0)
	if got := sc.keyScore("Amin", "8A"); got != 0 {
		t.Errorf("unparseable key should score 0, got %v", got)
	}
}

func TestExplainUnknownKey(t *testing.T) {
	a := &TrackProfile{BPM: 120, Key: "", Energy: 5}
	b := &TrackProfile{BPM: 118, Key: "8A", Energy: 5}

	explanation := Explain(Scores{}, a, b)
	want := "similar vibe (0%); Δ-2 BPM; key: unknown; energy +0"
	if explanation != want {
		t.Errorf("expected %q, got %q", want, explanation)
	}
}

func TestExplainClash(t *testing.T) {
	a := &TrackProfile{BPM: 120, Key: "8A", Energy: 5}
	b := &TrackProfile{BPM: 120, Key: "2B", Energy: 7}

	explanation := Explain(Scores{Vibe: 0.5}, a, b)
	want := "similar vibe (50%); Δ+0 BPM; key: 8A→2B (clash); energy +2"
	if explanation != want {
		t.Errorf("expected %q, got %q", want, explanation)
	}
}

func TestNewScorerDefaults(t *testing.T) {
	sc := NewScorer(0, -1)
	if sc.tempoWindow != DefaultTempoWindow {
		t.Errorf("expected default tempo window, got %v", sc.tempoWindow)
	}
	if sc.energyRange != DefaultEnergyRange {
		t.Errorf("expected default energy range, got %v", sc.energyRange)
	}
}

package similarity

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ParkWardRR/cartomix/internal/report"
	"github.com/ParkWardRR/cartomix/internal/store"
	"github.com/ParkWardRR/cartomix/internal/util"
)

// Engine computes and caches pairwise similarity between analyzed tracks
type Engine struct {
	store       *store.Store
	scorer      *Scorer
	concurrency int
	logger      *report.EventLogger
}

// Config holds engine configuration
type Config struct {
	Store       *store.Store
	TempoWindow float64 // BPM window for the tempo score (0 = default 8)
	EnergyRange float64 // size of the energy scale (0 = default 9)
	Concurrency int
	Logger      *report.EventLogger
}

// New creates a new Engine
func New(cfg *Config) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Engine{
		store:       cfg.Store,
		scorer:      NewScorer(cfg.TempoWindow, cfg.EnergyRange),
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// Match is one candidate track with its similarity to the source track
type Match struct {
	TrackID     int64
	Scores      Scores
	Explanation string
}

// FindSimilar ranks all other tracks with embeddings against the source
// track. Cached pair scores are reused; misses are computed on a worker
// pool and upserted under canonical pair ordering. Results are sorted by
// combined score descending, ties broken by lower track ID.
//
// Returns ErrNotFound if the source track has no embedding, and an empty
// slice (not an error) when no candidates qualify.
func (e *Engine) FindSimilar(ctx context.Context, trackID int64, limit int) ([]*Match, error) {
	source, err := e.profile(trackID)
	if err != nil {
		return nil, err
	}

	candidateIDs, err := e.store.TracksWithEmbeddings()
	if err != nil {
		return nil, err
	}

	var misses []int64
	matches := make([]*Match, 0, len(candidateIDs))

	for _, id := range candidateIDs {
		if id == trackID {
			continue
		}

		cached, err := e.store.GetSimilarity(trackID, id)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			matches = append(matches, matchFromEntry(id, cached))
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		computed, err := e.computePairs(ctx, source, misses)
		if err != nil {
			return nil, err
		}
		matches = append(matches, computed...)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Scores.Combined != matches[j].Scores.Combined {
			return matches[i].Scores.Combined > matches[j].Scores.Combined
		}
		return matches[i].TrackID < matches[j].TrackID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// computePairs scores the source against each candidate on a bounded
// worker pool. Cache upserts serialize through the store's single writer.
func (e *Engine) computePairs(ctx context.Context, source *TrackProfile, candidateIDs []int64) ([]*Match, error) {
	idsChan := make(chan int64, e.concurrency*2)
	doneChan := make(chan struct{})

	var mu sync.Mutex
	var matches []*Match
	var firstErr error

	for i := 0; i < e.concurrency; i++ {
		go func() {
			defer func() { doneChan <- struct{}{} }()

			for id := range idsChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				match, err := e.scorePair(source, id)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else if match != nil {
					matches = append(matches, match)
				}
				mu.Unlock()
			}
		}()
	}

	go func() {
		defer close(idsChan)
		for _, id := range candidateIDs {
			select {
			case <-ctx.Done():
				return
			case idsChan <- id:
			}
		}
	}()

	for i := 0; i < e.concurrency; i++ {
		<-doneChan
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	return matches, nil
}

// scorePair computes, caches, and returns one pair score. Candidates
// whose profile cannot be loaded (analysis or embedding vanished between
// listing and scoring) are skipped, not treated as failures.
func (e *Engine) scorePair(source *TrackProfile, candidateID int64) (*Match, error) {
	candidate, err := e.profile(candidateID)
	if err != nil {
		util.DebugLog("Skipping candidate track %d: %v", candidateID, err)
		return nil, nil
	}

	// Canonical orientation keeps cached explanations deterministic
	// regardless of which side of the pair is queried
	lo, hi := source, candidate
	if lo.TrackID > hi.TrackID {
		lo, hi = hi, lo
	}

	scores := e.scorer.Score(lo, hi)
	explanation := Explain(scores, lo, hi)

	entry := &store.SimilarityEntry{
		TrackA:      lo.TrackID,
		TrackB:      hi.TrackID,
		Vibe:        scores.Vibe,
		Tempo:       scores.Tempo,
		Key:         scores.Key,
		Energy:      scores.Energy,
		Combined:    scores.Combined,
		Explanation: explanation,
	}
	if err := e.store.UpsertSimilarity(entry); err != nil {
		return nil, err
	}

	e.logger.LogSimilarity(lo.TrackID, hi.TrackID, scores.Combined)

	return &Match{TrackID: candidateID, Scores: scores, Explanation: explanation}, nil
}

// profile assembles the scoring inputs for a track from its latest
// analysis and embedding
func (e *Engine) profile(trackID int64) (*TrackProfile, error) {
	embedding, err := e.store.LatestEmbedding(trackID)
	if err != nil {
		return nil, err
	}

	analysis, err := e.store.LatestAnalysis(trackID)
	if err != nil {
		return nil, err
	}
	if analysis.Status != store.StatusComplete {
		return nil, fmt.Errorf("latest analysis for track %d is %s: %w",
			trackID, analysis.Status, util.ErrNotFound)
	}

	return &TrackProfile{
		TrackID:   trackID,
		BPM:       analysis.BPM,
		Key:       analysis.KeyValue,
		Energy:    analysis.Energy,
		Embedding: embedding.Vector,
	}, nil
}

func matchFromEntry(candidateID int64, entry *store.SimilarityEntry) *Match {
	return &Match{
		TrackID: candidateID,
		Scores: Scores{
			Vibe:     entry.Vibe,
			Tempo:    entry.Tempo,
			Key:      entry.Key,
			Energy:   entry.Energy,
			Combined: entry.Combined,
		},
		Explanation: entry.Explanation,
	}
}

// Package pipeline adapts the external analysis pipeline's event stream
// to the store.
//
// Progress events are non-authoritative and never persisted; exactly one
// terminal event per analysis mutates state. Events may arrive out of
// order or duplicated, so persistence is idempotent: duplicates of a
// terminal event are dropped, never re-applied.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ParkWardRR/cartomix/internal/report"
	"github.com/ParkWardRR/cartomix/internal/store"
	"github.com/ParkWardRR/cartomix/internal/util"
)

// Event is one message from the analysis pipeline
type Event struct {
	AnalysisID int64
	Stage      string
	Fraction   float64 // 0-1, progress only
	Terminal   bool
	Status     string                // complete or failed, terminal events only
	Result     *store.AnalysisResult // payload for terminal complete events
	Reason     string                // failure reason for terminal failed events
}

// Consumer drains pipeline events into the store
type Consumer struct {
	store   *store.Store
	events  chan Event
	timeout time.Duration
	logger  *report.EventLogger
}

// Config holds consumer configuration
type Config struct {
	Store      *store.Store
	BufferSize int           // bounded event channel size (0 = 64)
	Timeout    time.Duration // per-analysis silence deadline (0 = 10m)
	Logger     *report.EventLogger
}

// New creates a new Consumer
func New(cfg *Config) *Consumer {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	return &Consumer{
		store:   cfg.Store,
		events:  make(chan Event, cfg.BufferSize),
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
}

// Events returns the channel the pipeline delivers into. Sends block
// when the buffer is full, applying backpressure to the producer.
func (c *Consumer) Events() chan<- Event {
	return c.events
}

// Watch registers an analysis for timeout tracking from the moment it
// begins, so one that never reports at all still expires
func (c *Consumer) Watch(analysisID int64) {
	c.events <- Event{AnalysisID: analysisID, Stage: "queued"}
}

// Run consumes events until the context is cancelled. An analysis that
// goes silent past the timeout is marked failed rather than left pending
// forever.
func (c *Consumer) Run(ctx context.Context) error {
	lastSeen := make(map[int64]time.Time)

	ticker := time.NewTicker(c.timeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-c.events:
			if ev.Terminal {
				delete(lastSeen, ev.AnalysisID)
				c.applyTerminal(ev)
			} else {
				lastSeen[ev.AnalysisID] = time.Now()
				util.DebugLog("Analysis %d progress: %s %.0f%%", ev.AnalysisID, ev.Stage, ev.Fraction*100)
			}

		case <-ticker.C:
			now := time.Now()
			for id, seen := range lastSeen {
				if now.Sub(seen) > c.timeout {
					delete(lastSeen, id)
					c.expire(id)
				}
			}
		}
	}
}

// applyTerminal persists a terminal event. Conflict means the analysis
// already reached a terminal status; the duplicate is dropped by design.
func (c *Consumer) applyTerminal(ev Event) {
	status := ev.Status
	if status != store.StatusComplete && status != store.StatusFailed {
		util.WarnLog("Analysis %d: ignoring terminal event with status %q", ev.AnalysisID, status)
		return
	}

	// Promote straight from pending when no processing event arrived first
	if err := c.store.RecordResult(ev.AnalysisID, store.StatusProcessing, nil); err != nil {
		if errors.Is(err, util.ErrConflict) {
			util.DebugLog("Analysis %d: dropping duplicate terminal event", ev.AnalysisID)
			return
		}
		util.ErrorLog("Analysis %d: %v", ev.AnalysisID, err)
		return
	}

	err := c.store.RecordResult(ev.AnalysisID, status, ev.Result)
	if err != nil {
		if errors.Is(err, util.ErrConflict) {
			util.DebugLog("Analysis %d: dropping duplicate terminal event", ev.AnalysisID)
			return
		}
		util.ErrorLog("Analysis %d: failed to record result: %v", ev.AnalysisID, err)
	}

	var resultErr error
	if status == store.StatusFailed && ev.Reason != "" {
		resultErr = fmt.Errorf("%s", ev.Reason)
	}
	c.logger.LogResult(0, ev.AnalysisID, status, resultErr)
}

// expire marks a silent analysis failed
func (c *Consumer) expire(analysisID int64) {
	util.WarnLog("Analysis %d timed out, marking failed", analysisID)

	if err := c.store.RecordResult(analysisID, store.StatusFailed, nil); err != nil {
		if !errors.Is(err, util.ErrConflict) {
			util.ErrorLog("Analysis %d: failed to mark timed out: %v", analysisID, err)
		}
	}
}

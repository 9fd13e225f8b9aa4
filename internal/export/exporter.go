package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ParkWardRR/cartomix/internal/overlay"
	"github.com/ParkWardRR/cartomix/internal/report"
	"github.com/ParkWardRR/cartomix/internal/store"
	"github.com/ParkWardRR/cartomix/internal/util"
)

// Format identifies an interchange format
type Format string

const (
	FormatRekordbox Format = "rekordbox"
	FormatSerato    Format = "serato"
	FormatTraktor   Format = "traktor"
	FormatJSON      Format = "json"
	FormatM3U8      Format = "m3u8"
	FormatCSV       Format = "csv"
)

// Formats lists all supported formats
func Formats() []Format {
	return []Format{FormatRekordbox, FormatSerato, FormatTraktor, FormatJSON, FormatM3U8, FormatCSV}
}

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown export format %q", util.ErrValidation, s)
}

// TrackView is the merged, override-applied view of one track handed to
// the format writers
type TrackView struct {
	TrackID      int64
	ContentHash  string
	Path         string
	Title        string
	Artist       string
	Album        string
	DurationSecs float64
	BPM          float64
	Key          string
	Energy       int
	Cues         []store.Cue
	AnalyzedAt   time.Time
}

// Exporter serializes track selections into interchange formats
type Exporter struct {
	store       *store.Store
	retryConfig *util.RetryConfig
	logger      *report.EventLogger
}

// Config holds exporter configuration
type Config struct {
	Store       *store.Store
	RetryConfig *util.RetryConfig // Retry for transient write failures (nil = no retries)
	Logger      *report.EventLogger
}

// New creates a new Exporter
func New(cfg *Config) *Exporter {
	if cfg.RetryConfig == nil {
		cfg.RetryConfig = util.NoRetryConfig()
	}
	return &Exporter{
		store:       cfg.Store,
		retryConfig: cfg.RetryConfig,
		logger:      cfg.Logger,
	}
}

// Result describes a completed export
type Result struct {
	Primary  string   // path of the primary output file
	Extra    []string // supplementary file paths (e.g. serato cues sidecar)
	Checksum string   // SHA-256 hex of the primary file's final bytes
}

// Collect loads the override-applied view for each track ID. Cue edits
// are merged here, on the read path, so exports always reflect the
// latest user overrides.
func (e *Exporter) Collect(trackIDs []int64) ([]*TrackView, error) {
	views := make([]*TrackView, 0, len(trackIDs))

	for _, id := range trackIDs {
		track, err := e.store.GetTrackByID(id)
		if err != nil {
			return nil, err
		}

		view := &TrackView{
			TrackID:     track.ID,
			ContentHash: track.ContentHash,
			Path:        track.Path,
			Title:       track.Title,
			Artist:      track.Artist,
			Album:       track.Album,
		}

		analysis, err := e.store.LatestAnalysis(id)
		if err == nil && analysis.Status == store.StatusComplete {
			view.DurationSecs = analysis.DurationSecs
			view.BPM = analysis.BPM
			view.Key = analysis.KeyValue
			view.Energy = analysis.Energy
			view.AnalyzedAt = analysis.UpdatedAt

			edits, err := e.store.CueEdits(id)
			if err != nil {
				return nil, err
			}
			view.Cues = overlay.MergeCues(analysis.Cues, edits)
		}

		views = append(views, view)
	}

	return views, nil
}

// fileSpec is one output file of an export: its final name and writer
type fileSpec struct {
	filename string
	write    func(w io.Writer) error
}

// Export serializes the track views into the named format inside dir.
//
// All files for the call are written to temporary .part paths and renamed
// into place only after every write succeeds; any failure removes all
// partial and renamed files, so a caller never observes a half-written
// export set. The checksum is computed over the primary file as read back
// from disk after the rename.
func (e *Exporter) Export(ctx context.Context, tracks []*TrackView, format Format, name, dir string) (*Result, error) {
	start := time.Now()

	result, err := e.export(ctx, tracks, format, name, dir)

	e.logger.LogExport(string(format), resultPrimary(result), resultChecksum(result),
		len(tracks), time.Since(start), err)

	return result, err
}

func (e *Exporter) export(ctx context.Context, tracks []*TrackView, format Format, name, dir string) (*Result, error) {
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: empty track list", util.ErrValidation)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty export name", util.ErrValidation)
	}

	if err := e.checkWritable(dir); err != nil {
		return nil, err
	}

	specs, err := filesFor(format, name, tracks)
	if err != nil {
		return nil, err
	}

	// Phase 1: write every file to its .part path
	var partPaths []string
	cleanupParts := func() {
		for _, p := range partPaths {
			util.RetryableRemove(p, e.retryConfig)
		}
	}

	for _, spec := range specs {
		select {
		case <-ctx.Done():
			cleanupParts()
			return nil, ctx.Err()
		default:
		}

		partPath := filepath.Join(dir, spec.filename+".part")
		if err := e.writePart(partPath, spec.write); err != nil {
			cleanupParts()
			return nil, err
		}
		partPaths = append(partPaths, partPath)
	}

	// Phase 2: rename all parts into place; roll everything back on failure
	var finalPaths []string
	for i, spec := range specs {
		finalPath := filepath.Join(dir, spec.filename)
		if err := util.RetryableRename(partPaths[i], finalPath, e.retryConfig); err != nil {
			for _, p := range finalPaths {
				util.RetryableRemove(p, e.retryConfig)
			}
			for _, p := range partPaths[i:] {
				util.RetryableRemove(p, e.retryConfig)
			}
			return nil, fmt.Errorf("%w: rename %s: %v", util.ErrIO, spec.filename, err)
		}
		finalPaths = append(finalPaths, finalPath)
	}

	// Checksum over the flushed bytes, never an in-memory buffer
	checksum, err := util.FileChecksum(finalPaths[0])
	if err != nil {
		return nil, fmt.Errorf("%w: checksum %s: %v", util.ErrIO, finalPaths[0], err)
	}

	return &Result{
		Primary:  finalPaths[0],
		Extra:    finalPaths[1:],
		Checksum: checksum,
	}, nil
}

// writePart writes one output file to its temporary path, fsyncing
// before close so the checksum later reads what actually hit disk
func (e *Exporter) writePart(partPath string, write func(w io.Writer) error) error {
	f, err := util.RetryableCreate(partPath, e.retryConfig)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", util.ErrIO, partPath, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", util.ErrSerialization, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("%w: sync %s: %v", util.ErrIO, partPath, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", util.ErrIO, partPath, err)
	}

	return nil
}

// checkWritable verifies the destination directory exists and accepts writes
func (e *Exporter) checkWritable(dir string) error {
	if err := util.RetryableMkdirAll(dir, 0755, e.retryConfig); err != nil {
		return fmt.Errorf("%w: create directory %s: %v", util.ErrIO, dir, err)
	}

	probe, err := os.CreateTemp(dir, ".cartomix-probe-*")
	if err != nil {
		return fmt.Errorf("%w: directory %s is not writable: %v", util.ErrIO, dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	return nil
}

// filesFor maps a format to its output file set; the first spec is the
// primary file
func filesFor(format Format, name string, tracks []*TrackView) ([]fileSpec, error) {
	switch format {
	case FormatRekordbox:
		return []fileSpec{{name + ".xml", func(w io.Writer) error {
			return writeRekordbox(w, name, tracks)
		}}}, nil
	case FormatSerato:
		return []fileSpec{
			{name + ".crate", func(w io.Writer) error {
				return writeSeratoCrate(w, tracks)
			}},
			{name + "-cues.bin", func(w io.Writer) error {
				return writeSeratoCues(w, tracks)
			}},
		}, nil
	case FormatTraktor:
		return []fileSpec{{name + ".nml", func(w io.Writer) error {
			return writeTraktor(w, name, tracks)
		}}}, nil
	case FormatJSON:
		return []fileSpec{{name + ".json", func(w io.Writer) error {
			return writeJSON(w, name, tracks)
		}}}, nil
	case FormatM3U8:
		return []fileSpec{{name + ".m3u8", func(w io.Writer) error {
			return writeM3U8(w, name, tracks)
		}}}, nil
	case FormatCSV:
		return []fileSpec{{name + ".csv", func(w io.Writer) error {
			return writeCSV(w, tracks)
		}}}, nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", util.ErrValidation, format)
	}
}

func resultPrimary(r *Result) string {
	if r == nil {
		return ""
	}
	return r.Primary
}

func resultChecksum(r *Result) string {
	if r == nil {
		return ""
	}
	return r.Checksum
}

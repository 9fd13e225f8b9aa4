package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ParkWardRR/cartomix/internal/report"
	"github.com/ParkWardRR/cartomix/internal/store"
	"github.com/ParkWardRR/cartomix/internal/util"
	"github.com/dhowden/tag"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/unicode/norm"
)

// AudioExtensions are the supported audio file extensions
var AudioExtensions = []string{
	".mp3",
	".flac",
	".m4a",
	".aac",
	".ogg",
	".opus",
	".wav",
	".aiff",
	".aif",
}

// Importer identifies audio files on disk and registers them as tracks
type Importer struct {
	store       *store.Store
	extensions  map[string]bool
	concurrency int
	logger      *report.EventLogger
}

// Config holds importer configuration
type Config struct {
	Store          *store.Store
	AdditionalExts []string
	Concurrency    int
	Logger         *report.EventLogger
}

// New creates a new Importer
func New(cfg *Config) *Importer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	extMap := make(map[string]bool)
	for _, ext := range AudioExtensions {
		extMap[strings.ToLower(ext)] = true
	}
	for _, ext := range cfg.AdditionalExts {
		extMap[strings.ToLower(ext)] = true
	}

	return &Importer{
		store:       cfg.Store,
		extensions:  extMap,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// Result represents an import run
type Result struct {
	FilesFound    int
	TracksCreated int
	TracksUpdated int
	Errors        []error
}

// identified is a hashed-and-tagged file waiting for the DB writer
type identified struct {
	contentHash string
	meta        store.TrackMeta
}

// Import walks the source directory, content-hashes every audio file,
// reads its tags, and identifies or creates the matching track.
// Hashing and tag reading fan out across workers; store writes funnel
// through a single writer goroutine.
func (im *Importer) Import(ctx context.Context, sourcePath string) (*Result, error) {
	util.InfoLog("Starting import of: %s", sourcePath)

	result := &Result{
		Errors: make([]error, 0),
	}

	filePaths := make(chan string, 100)
	pending := make(chan *identified, 100)

	var filesFound atomic.Int64
	var processed atomic.Int64
	var created atomic.Int64
	var updated atomic.Int64

	var wg sync.WaitGroup
	var errMu sync.Mutex

	addError := func(err error) {
		errMu.Lock()
		result.Errors = append(result.Errors, err)
		errMu.Unlock()
	}

	// Progress bar on a TTY, periodic text log otherwise
	isTTY := util.IsTerminal(os.Stdout.Fd())
	var bar *progressbar.ProgressBar
	if isTTY && !util.IsQuiet() {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Importing"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	progressCtx, cancelProgress := context.WithCancel(ctx)
	defer cancelProgress()

	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				p := processed.Load()
				if bar != nil {
					bar.Describe(fmt.Sprintf("Importing | %d found | %d new | %d updated",
						filesFound.Load(), created.Load(), updated.Load()))
					bar.Set64(p)
				} else if p > 0 {
					util.InfoLog("Progress: %d/%d files (new: %d, updated: %d)",
						p, filesFound.Load(), created.Load(), updated.Load())
				}
			}
		}
	}()

	// Single DB writer; the store serializes all mutations anyway
	var writerWg sync.WaitGroup
	writerWg.Add(1)
	go func() {
		defer writerWg.Done()
		for id := range pending {
			existing, err := im.store.GetTrackByHash(id.contentHash)
			isNew := err != nil

			track, err := im.store.IdentifyOrCreateTrack(id.contentHash, id.meta)
			if err != nil {
				util.ErrorLog("Failed to identify %s: %v", id.meta.Path, err)
				addError(err)
				continue
			}

			if isNew {
				created.Add(1)
			} else {
				updated.Add(1)
				if existing.Path != track.Path {
					util.DebugLog("Track %d moved: %s -> %s", track.ID, existing.Path, track.Path)
				}
			}

			im.logger.LogImport(track.ID, track.Path, isNew)
		}
	}()

	// Hash/tag worker pool
	for i := 0; i < im.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range filePaths {
				select {
				case <-ctx.Done():
					return
				default:
				}

				id, err := im.identifyFile(path)
				processed.Add(1)

				if err != nil {
					util.ErrorLog("Failed to process %s: %v", path, err)
					addError(err)
					continue
				}

				select {
				case pending <- id:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	walkErr := filepath.WalkDir(sourcePath, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			util.WarnLog("Error accessing path %s: %v", path, err)
			addError(fmt.Errorf("access error: %s: %w", path, err))
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if im.isAudioFile(path) {
			filesFound.Add(1)
			select {
			case filePaths <- path:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return nil
	})

	close(filePaths)
	wg.Wait()
	close(pending)
	writerWg.Wait()

	cancelProgress()
	if bar != nil {
		bar.Finish()
	}

	result.FilesFound = int(filesFound.Load())
	result.TracksCreated = int(created.Load())
	result.TracksUpdated = int(updated.Load())

	if walkErr != nil && walkErr != context.Canceled {
		return result, fmt.Errorf("walk error: %w", walkErr)
	}

	util.SuccessLog("Import complete: %d files, %d tracks created, %d updated, %d errors",
		result.FilesFound, result.TracksCreated, result.TracksUpdated, len(result.Errors))

	return result, nil
}

// identifyFile hashes a file's content and reads its tags
func (im *Importer) identifyFile(path string) (*identified, error) {
	contentHash, err := util.ContentHash(path)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	size, mtime, err := util.GetFileMetadata(path)
	if err != nil {
		return nil, err
	}

	meta := store.TrackMeta{
		Path:      path,
		SizeBytes: size,
		MtimeUnix: mtime,
	}

	meta.Title, meta.Artist, meta.Album = readTags(path)
	if meta.Title == "" {
		// Fall back to the filename so identification never fails on
		// untagged files
		meta.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &identified{contentHash: contentHash, meta: meta}, nil
}

// readTags extracts NFC-normalized title/artist/album from file tags.
// Returns empty strings when the file has no readable tags.
func readTags(path string) (title, artist, album string) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", ""
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		util.DebugLog("No readable tags in %s: %v", path, err)
		return "", "", ""
	}

	title = norm.NFC.String(strings.TrimSpace(m.Title()))
	artist = norm.NFC.String(strings.TrimSpace(m.Artist()))
	album = norm.NFC.String(strings.TrimSpace(m.Album()))
	return title, artist, album
}

// isAudioFile checks if a file has a supported audio extension
func (im *Importer) isAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return im.extensions[ext]
}

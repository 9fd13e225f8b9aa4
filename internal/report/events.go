package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventImport     EventType = "import"
	EventAnalyze    EventType = "analyze"
	EventResult     EventType = "result"
	EventCueEdit    EventType = "cue_edit"
	EventSimilarity EventType = "similarity"
	EventExport     EventType = "export"
	EventDelete     EventType = "delete"
	EventError      EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single audit event
type Event struct {
	Timestamp   time.Time         `json:"ts"`
	Level       EventLevel        `json:"level"`
	Event       EventType         `json:"event"`
	TrackID     int64             `json:"track_id,omitempty"`
	PairTrackID int64             `json:"pair_track_id,omitempty"`
	AnalysisID  int64             `json:"analysis_id,omitempty"`
	Version     int               `json:"version,omitempty"`
	Status      string            `json:"status,omitempty"`
	Path        string            `json:"path,omitempty"`
	Format      string            `json:"format,omitempty"`
	Checksum    string            `json:"checksum,omitempty"`
	Score       float64           `json:"score,omitempty"`
	Duration    int64             `json:"duration_ms,omitempty"`
	Error       string            `json:"error,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// EventLogger writes audit events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s.jsonl", timestamp)
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil // Silently ignore if logger not initialized
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogImport logs a track identification event
func (l *EventLogger) LogImport(trackID int64, path string, created bool) error {
	return l.Log(&Event{
		Level:   LevelInfo,
		Event:   EventImport,
		TrackID: trackID,
		Path:    path,
		Extra: map[string]string{
			"created": fmt.Sprintf("%t", created),
		},
	})
}

// LogAnalyze logs the start of a new analysis version
func (l *EventLogger) LogAnalyze(trackID, analysisID int64, version int) error {
	return l.Log(&Event{
		Level:      LevelInfo,
		Event:      EventAnalyze,
		TrackID:    trackID,
		AnalysisID: analysisID,
		Version:    version,
	})
}

// LogResult logs a terminal analysis result
func (l *EventLogger) LogResult(trackID, analysisID int64, status string, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:      level,
		Event:      EventResult,
		TrackID:    trackID,
		AnalysisID: analysisID,
		Status:     status,
		Error:      errMsg,
	})
}

// LogCueEdit logs a user cue override
func (l *EventLogger) LogCueEdit(trackID int64, cueIndex int) error {
	return l.Log(&Event{
		Level:   LevelInfo,
		Event:   EventCueEdit,
		TrackID: trackID,
		Extra: map[string]string{
			"cue_index": fmt.Sprintf("%d", cueIndex),
		},
	})
}

// LogSimilarity logs a freshly computed pair score
func (l *EventLogger) LogSimilarity(trackA, trackB int64, combined float64) error {
	return l.Log(&Event{
		Level:       LevelDebug,
		Event:       EventSimilarity,
		TrackID:     trackA,
		PairTrackID: trackB,
		Score:       combined,
	})
}

// LogExport logs a completed or failed export
func (l *EventLogger) LogExport(format, path, checksum string, trackCount int, duration time.Duration, err error) error {
	level := LevelInfo
	errMsg := ""
	if err != nil {
		level = LevelError
		errMsg = err.Error()
	}

	return l.Log(&Event{
		Level:    level,
		Event:    EventExport,
		Format:   format,
		Path:     path,
		Checksum: checksum,
		Duration: duration.Milliseconds(),
		Error:    errMsg,
		Extra: map[string]string{
			"track_count": fmt.Sprintf("%d", trackCount),
		},
	})
}

// LogDelete logs a track deletion
func (l *EventLogger) LogDelete(trackID int64) error {
	return l.Log(&Event{
		Level:   LevelInfo,
		Event:   EventDelete,
		TrackID: trackID,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, trackID int64, err error) error {
	return l.Log(&Event{
		Level:   LevelError,
		Event:   event,
		TrackID: trackID,
		Error:   err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// NullLogger returns a no-op event logger
func NullLogger() *EventLogger {
	return nil
}

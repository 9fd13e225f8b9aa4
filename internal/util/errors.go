package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates a missing track, analysis, or embedding
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a version race or an update to a terminal analysis
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates malformed input (empty required metadata, empty export list)
	ErrValidation = errors.New("validation failed")

	// ErrIO indicates a filesystem or write failure
	ErrIO = errors.New("i/o failure")

	// ErrSerialization indicates a format-specific encode failure
	ErrSerialization = errors.New("serialization failed")

	// ErrCascade indicates an orphan row survived a cascade delete
	ErrCascade = errors.New("cascade integrity violation")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)

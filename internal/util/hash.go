package util

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// ContentHash computes the SHA-256 digest of a file's bytes.
// Used as stable track identity independent of the file path.
func ContentHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// FileChecksum computes the SHA-256 hex digest of a file as read back
// from disk. Used to verify export integrity after the write completes.
func FileChecksum(path string) (string, error) {
	return ContentHash(path)
}

// GetFileMetadata extracts basic filesystem metadata
func GetFileMetadata(path string) (size int64, mtime int64, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to stat file: %w", err)
	}

	return info.Size(), info.ModTime().Unix(), nil
}

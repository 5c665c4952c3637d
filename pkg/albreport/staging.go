package albreport

import (
	"fmt"
	"os"
	"path/filepath"
)

// Staging owns the intermediate directories of one run: one for the
// compressed objects as downloaded, one for the extracted text files.
// Create empties both so a rerun never sees stale files; Cleanup
// removes them on every exit path.
type Staging struct {
	Compressed string
	Extracted  string
}

// NewStaging lays out the staging directories under root.
func NewStaging(root string) *Staging {
	return &Staging{
		Compressed: filepath.Join(root, "log"),
		Extracted:  filepath.Join(root, "parsed"),
	}
}

// Create creates both directories, emptying any leftover content.
func (s *Staging) Create() error {
	for _, dir := range []string{s.Compressed, s.Extracted} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to clear staging directory %s: %w", dir, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create staging directory %s: %w", dir, err)
		}
	}
	return nil
}

// Cleanup removes the staging directories. Best effort: the first
// error is returned but both directories are attempted.
func (s *Staging) Cleanup() error {
	var firstErr error
	for _, dir := range []string{s.Compressed, s.Extracted} {
		if err := os.RemoveAll(dir); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to remove staging directory %s: %w", dir, err)
		}
	}
	return firstErr
}

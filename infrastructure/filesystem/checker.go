package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"clip-editor/domain/video"
)

// Checker implements video.FileChecker and video.FileRemover using the os package
type Checker struct{}

// NewChecker creates a new filesystem checker
func NewChecker() *Checker {
	return &Checker{}
}

// Exists returns true if the path exists and is a regular file
func (c *Checker) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Remove deletes path; a file that was never created is not an error
func (c *Checker) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Ensure Checker implements video.FileChecker and video.FileRemover
var (
	_ video.FileChecker = (*Checker)(nil)
	_ video.FileRemover = (*Checker)(nil)
)

package video

import (
	"path/filepath"
	"strings"
)

// ClipLocation identifies an imported clip on local storage
type ClipLocation struct {
	Path     string
	Duration float64 // seconds, as reported by the prober
}

// IsZero returns true if no clip has been imported
func (c ClipLocation) IsZero() bool {
	return c.Path == ""
}

// Stem returns the clip's filename without directory or extension
func (c ClipLocation) Stem() string {
	base := filepath.Base(c.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// videoExtensions lists the containers the pickers offer for import
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
}

// IsVideoFile reports whether the filename has a supported video extension
func IsVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

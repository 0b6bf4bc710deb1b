// Package logging builds the application's structured logger.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// New creates a leveled hclog logger writing to w (stderr when nil).
// Unknown level names fall back to info.
func New(level string, w io.Writer) hclog.Logger {
	if w == nil {
		w = os.Stderr
	}

	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "clip-editor",
		Level:  lvl,
		Output: w,
	})
}

// Package picker implements editing.MediaSource: an interactive file picker
// over the import directory and a watcher that waits for a clip to be dropped in.
package picker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"clip-editor/domain/editing"
	"clip-editor/domain/video"
	"clip-editor/infrastructure/prompt"
)

// CancelOption is the picker entry that dismisses it without choosing
const CancelOption = "(cancel)"

// Prompt lets the user choose a video from a directory
type Prompt struct {
	dir      string
	prompter prompt.Prompter
}

// NewPrompt creates a picker over dir
func NewPrompt(dir string, prompter prompt.Prompter) *Prompt {
	if prompter == nil {
		prompter = prompt.Default
	}
	return &Prompt{dir: dir, prompter: prompter}
}

// ListVideos returns the video files in dir, sorted by name
func ListVideos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read import directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && video.IsVideoFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// PickVideo implements editing.MediaSource
func (p *Prompt) PickVideo(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", editing.ErrImportCancelled
	}

	names, err := ListVideos(p.dir)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no video files found in %s", p.dir)
	}

	choice, err := p.prompter.Select("Choose a clip to import:", append(names, CancelOption))
	if err != nil {
		if errors.Is(err, prompt.ErrInterrupted) {
			return "", editing.ErrImportCancelled
		}
		return "", err
	}
	if choice == CancelOption || choice == "" {
		return "", editing.ErrImportCancelled
	}

	return filepath.Join(p.dir, choice), nil
}

// Ensure Prompt implements editing.MediaSource
var _ editing.MediaSource = (*Prompt)(nil)

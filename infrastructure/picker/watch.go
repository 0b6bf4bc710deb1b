package picker

import (
	"context"
	"fmt"
	"time"

	"clip-editor/domain/editing"
	"clip-editor/domain/video"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// DefaultSettle is how long a new file must stay unchanged before it is picked
const DefaultSettle = 2 * time.Second

// Watch picks the next video file written into a directory
type Watch struct {
	dir    string
	settle time.Duration
	logger hclog.Logger
}

// WatchOption is a functional option for configuring Watch
type WatchOption func(*Watch)

// WithSettle overrides DefaultSettle
func WithSettle(d time.Duration) WatchOption {
	return func(w *Watch) {
		w.settle = d
	}
}

// WithWatchLogger sets the logger
func WithWatchLogger(logger hclog.Logger) WatchOption {
	return func(w *Watch) {
		w.logger = logger
	}
}

// NewWatch creates a watcher over dir
func NewWatch(dir string, opts ...WatchOption) *Watch {
	w := &Watch{
		dir:    dir,
		settle: DefaultSettle,
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named("picker")
	return w
}

// PickVideo implements editing.MediaSource. It blocks until a video file has
// been created and then left untouched for the settle period. Cancelling ctx
// dismisses the pick.
func (w *Watch) PickVideo(ctx context.Context) (string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return "", fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return "", fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("waiting for a clip", "dir", w.dir)

	var (
		candidate string
		settled   <-chan time.Time
		timer     *time.Timer
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return "", editing.ErrImportCancelled

		case ev, ok := <-watcher.Events:
			if !ok {
				return "", editing.ErrImportCancelled
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !video.IsVideoFile(ev.Name) {
				continue
			}
			if candidate != ev.Name {
				w.logger.Debug("clip candidate", "path", ev.Name)
			}
			candidate = ev.Name
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.settle)
			settled = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return "", editing.ErrImportCancelled
			}
			return "", fmt.Errorf("watch %s: %w", w.dir, err)

		case <-settled:
			w.logger.Info("clip picked", "path", candidate)
			return candidate, nil
		}
	}
}

// Ensure Watch implements editing.MediaSource
var _ editing.MediaSource = (*Watch)(nil)

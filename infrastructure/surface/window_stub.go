//go:build !preview

package surface

import (
	"fmt"
	"sync"
	"sync/atomic"

	"clip-editor/domain/editing"

	"github.com/hashicorp/go-hclog"
)

// Window is a headless surface used when GoCV/OpenCV is not available. It
// keeps preview graphs flowing by draining their frames.
type Window struct {
	title  string
	logger hclog.Logger

	mu       sync.Mutex
	attached bool
	bounds   editing.Bounds
	content  editing.Content
	frames   atomic.Int64
	stop     chan struct{}
	done     chan struct{}
}

// NewWindow creates a headless surface (build with -tags=preview for a real window)
func NewWindow(title string, logger hclog.Logger) *Window {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Window{title: title, logger: logger.Named("surface")}
}

// Attach records the bounds
func (w *Window) Attach(bounds editing.Bounds) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.attached = true
	w.bounds = bounds
	w.logger.Debug("headless surface attached", "title", w.title, "width", bounds.Width, "height", bounds.Height)
	return nil
}

// SetContent stops draining the previous content and replaces it
func (w *Window) SetContent(content editing.Content) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.attached {
		return fmt.Errorf("surface not attached")
	}
	w.halt()
	w.content = content
	return nil
}

// Play starts draining graph frames; clip content has nothing to decode headlessly
func (w *Window) Play() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.attached {
		return fmt.Errorf("surface not attached")
	}
	if w.content.Clip == "" && !w.content.IsGraph() {
		return fmt.Errorf("no content to play")
	}

	w.halt()
	if w.content.IsGraph() {
		w.stop = make(chan struct{})
		w.done = make(chan struct{})
		go w.drain(w.content.Graph, w.stop, w.done)
		return nil
	}
	w.logger.Info("playing clip (headless)", "path", w.content.Clip)
	return nil
}

// Frames returns how many preview frames have been consumed
func (w *Window) Frames() int64 {
	return w.frames.Load()
}

// Close stops draining
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.halt()
	w.attached = false
	return nil
}

// halt stops the drain goroutine; callers hold mu
func (w *Window) halt() {
	if w.stop == nil {
		return
	}
	close(w.stop)
	<-w.done
	w.stop, w.done = nil, nil
}

func (w *Window) drain(graph editing.PreviewGraph, stop, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		case _, ok := <-graph.Frames():
			if !ok {
				return
			}
			w.frames.Add(1)
		}
	}
}

// Ensure Window implements editing.Surface
var _ editing.Surface = (*Window)(nil)

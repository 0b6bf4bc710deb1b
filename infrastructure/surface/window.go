//go:build preview

package surface

import (
	"fmt"
	"image"
	"sync"

	"clip-editor/domain/editing"

	"github.com/hashicorp/go-hclog"
	"gocv.io/x/gocv"
)

// Window implements editing.Surface with an OpenCV HighGUI window. Every
// HighGUI call runs on one locked OS thread.
type Window struct {
	title  string
	logger hclog.Logger

	mu      sync.Mutex
	ui      *uiThread
	window  *gocv.Window
	bounds  editing.Bounds
	content editing.Content
	stop    chan struct{}
	done    chan struct{}
}

// NewWindow creates a window surface (requires building with -tags=preview)
func NewWindow(title string, logger hclog.Logger) *Window {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Window{title: title, logger: logger.Named("surface")}
}

// Attach opens the window at the given bounds
func (w *Window) Attach(bounds editing.Bounds) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ui == nil {
		w.ui = newUIThread()
	}
	err := w.ui.do(func() {
		if w.window == nil {
			w.window = gocv.NewWindow(w.title)
		}
		w.window.ResizeWindow(bounds.Width, bounds.Height)
	})
	if err != nil {
		return err
	}
	w.bounds = bounds
	return nil
}

// SetContent stops whatever is playing and replaces the render source
func (w *Window) SetContent(content editing.Content) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.window == nil {
		return fmt.Errorf("surface not attached")
	}
	w.halt()
	w.content = content
	return nil
}

// Play starts rendering the current content
func (w *Window) Play() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.window == nil {
		return fmt.Errorf("surface not attached")
	}
	if w.content.Clip == "" && !w.content.IsGraph() {
		return fmt.Errorf("no content to play")
	}

	w.halt()
	w.stop = make(chan struct{})
	w.done = make(chan struct{})

	if w.content.IsGraph() {
		go w.renderGraph(w.ui, w.window, w.content.Graph, w.stop, w.done)
	} else {
		go w.renderClip(w.ui, w.window, w.content.Clip, w.stop, w.done)
	}
	return nil
}

// Close stops playback and destroys the window
func (w *Window) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.halt()
	if w.ui == nil {
		return nil
	}
	var closeErr error
	err := w.ui.do(func() {
		if w.window != nil {
			closeErr = w.window.Close()
		}
	})
	w.ui.stop()
	w.ui, w.window = nil, nil
	if err != nil {
		return err
	}
	return closeErr
}

// halt stops the render goroutine; callers hold mu
func (w *Window) halt() {
	if w.stop == nil {
		return
	}
	close(w.stop)
	<-w.done
	w.stop, w.done = nil, nil
}

func (w *Window) renderGraph(ui *uiThread, window *gocv.Window, graph editing.PreviewGraph, stop, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		case frame, ok := <-graph.Frames():
			if !ok {
				return
			}
			mat, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
			if err != nil {
				w.logger.Warn("bad preview frame", "error", err)
				continue
			}
			err = ui.do(func() {
				window.IMShow(mat)
				window.WaitKey(1)
			})
			mat.Close()
			if err != nil {
				return
			}
		}
	}
}

func (w *Window) renderClip(ui *uiThread, window *gocv.Window, path string, stop, done chan struct{}) {
	defer close(done)

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		w.logger.Error("cannot open clip", "path", path, "error", err)
		return
	}
	defer capture.Close()

	delay := 33
	if fps := capture.Get(gocv.VideoCaptureFPS); fps > 0 {
		delay = int(1000 / fps)
	}

	img := gocv.NewMat()
	defer img.Close()
	scaled := gocv.NewMat()
	defer scaled.Close()

	size := image.Pt(w.bounds.Width, w.bounds.Height)
	misses := 0
	for {
		select {
		case <-stop:
			return
		default:
		}

		if !capture.Read(&img) || img.Empty() {
			misses++
			if misses > 1 {
				w.logger.Error("clip has no readable frames", "path", path)
				return
			}
			// loop like the filtered preview does
			capture.Set(gocv.VideoCapturePosFrames, 0)
			continue
		}
		misses = 0
		gocv.Resize(img, &scaled, size, 0, 0, gocv.InterpolationLinear)
		err := ui.do(func() {
			window.IMShow(scaled)
			window.WaitKey(delay)
		})
		if err != nil {
			return
		}
	}
}

// Ensure Window implements editing.Surface
var _ editing.Surface = (*Window)(nil)

package editing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"clip-editor/domain/editing"
	"clip-editor/domain/filter"
	"clip-editor/domain/video"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// eventBuffer is how many unread events are kept before new ones are dropped
const eventBuffer = 64

// DefaultBounds is the preview size used when none is configured
var DefaultBounds = editing.Bounds{Width: 640, Height: 360}

// Options configures a Controller
type Options struct {
	ExportDir string
	Preset    video.Preset
	Container string
	Bounds    editing.Bounds
	Logger    hclog.Logger
	// NewID names export outputs; defaults to the first block of a random UUID
	NewID func() string
}

// Controller drives one edit session. Every mutation of the session runs on a
// single event loop goroutine; preview builds and exports run on workers and
// post their results back onto the loop before touching the session.
type Controller struct {
	source  editing.MediaSource
	files   video.FileChecker
	prober  editing.Prober
	surface editing.Surface
	engine  editing.Engine
	catalog *filter.Catalog
	remover video.FileRemover
	opts    Options
	logger  hclog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	cmds      chan func()
	quit      chan struct{}
	events    chan editing.Event
	closeOnce sync.Once
	closeErr  error
	workers   sync.WaitGroup

	// owned by the loop
	session      editing.EditSession
	graph        editing.PreviewGraph
	previewGen   uint64
	exportCancel context.CancelFunc
	stopped      bool
}

// NewController attaches the surface at the configured bounds and starts the session loop
func NewController(
	source editing.MediaSource,
	files video.FileChecker,
	prober editing.Prober,
	surface editing.Surface,
	engine editing.Engine,
	catalog *filter.Catalog,
	remover video.FileRemover,
	opts Options,
) (*Controller, error) {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.Bounds.Width <= 0 || opts.Bounds.Height <= 0 {
		opts.Bounds = DefaultBounds
	}
	if opts.Preset == "" {
		opts.Preset = video.DefaultPreset
	}
	if opts.Container == "" {
		opts.Container = video.DefaultContainer
	}
	if opts.NewID == nil {
		opts.NewID = shortID
	}
	if catalog == nil {
		catalog = filter.DefaultCatalog()
	}

	if err := surface.Attach(opts.Bounds); err != nil {
		return nil, fmt.Errorf("failed to attach playback surface: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		source:  source,
		files:   files,
		prober:  prober,
		surface: surface,
		engine:  engine,
		catalog: catalog,
		remover: remover,
		opts:    opts,
		logger:  opts.Logger.Named("session"),
		ctx:     ctx,
		cancel:  cancel,
		cmds:    make(chan func()),
		quit:    make(chan struct{}),
		events:  make(chan editing.Event, eventBuffer),
	}

	go c.run()
	return c, nil
}

func (c *Controller) run() {
	defer func() {
		close(c.events)
		close(c.quit)
	}()

	for fn := range c.cmds {
		fn()
		if c.stopped {
			return
		}
	}
}

// do runs fn on the loop and waits for it to return
func (c *Controller) do(fn func()) error {
	done := make(chan struct{})
	select {
	case c.cmds <- func() { fn(); close(done) }:
	case <-c.quit:
		return editing.ErrSessionClosed
	}
	<-done
	return nil
}

// post hands a worker result to the loop; false means the session has closed
func (c *Controller) post(fn func()) bool {
	select {
	case c.cmds <- fn:
		return true
	case <-c.quit:
		return false
	}
}

func (c *Controller) emit(t editing.EventType, err error) {
	select {
	case c.events <- editing.Event{Type: t, Session: c.session, Err: err}:
	default:
		c.logger.Warn("event dropped, no reader", "event", t)
	}
}

// Events delivers a copy of the session after every state change. The
// channel is closed when the controller is closed.
func (c *Controller) Events() <-chan editing.Event {
	return c.events
}

// Filters implements filter.CatalogProvider
func (c *Controller) Filters() []filter.Filter {
	return c.catalog.Filters()
}

// Snapshot returns a copy of the current session
func (c *Controller) Snapshot() editing.EditSession {
	var s editing.EditSession
	if err := c.do(func() { s = c.session }); err != nil {
		// the loop has exited; its fields are no longer written
		<-c.quit
		return c.session
	}
	return s
}

// ImportClip asks the media source for a clip and loads it. A dismissed
// picker returns ErrImportCancelled and leaves the session untouched.
func (c *Controller) ImportClip(ctx context.Context) error {
	var exporting bool
	if err := c.do(func() { exporting = c.session.Export.Phase == editing.ExportRunning }); err != nil {
		return err
	}
	if exporting {
		return editing.ErrExportInFlight
	}

	path, err := c.source.PickVideo(ctx)
	if err != nil {
		if errors.Is(err, editing.ErrImportCancelled) {
			c.logger.Debug("import cancelled")
			return err
		}
		return fmt.Errorf("failed to pick video: %w", err)
	}

	return c.ImportLocation(ctx, path)
}

// ImportLocation loads the clip at path, resets trim to the full clip, clears
// the filter and starts unfiltered playback.
func (c *Controller) ImportLocation(ctx context.Context, path string) error {
	if !c.files.Exists(path) {
		return fmt.Errorf("source file does not exist: %s", path)
	}

	duration, err := c.prober.Duration(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to read clip duration: %w", err)
	}
	if duration <= 0 {
		return fmt.Errorf("clip %s has no playable duration", path)
	}

	var applyErr error
	err = c.do(func() {
		if c.session.Export.Phase == editing.ExportRunning {
			applyErr = editing.ErrExportInFlight
			return
		}

		c.detachGraph()
		c.previewGen++
		c.session = editing.EditSession{
			Source: video.ClipLocation{Path: path, Duration: duration},
			Trim:   video.FullRange(duration),
		}
		c.logger.Info("clip imported", "path", path, "duration", duration)

		applyErr = c.playClip()
		c.emit(editing.EventImported, applyErr)
	})
	if err != nil {
		return err
	}
	return applyErr
}

// SelectFilter replaces the live preview with one rendered through filter id.
// The previous graph is stopped before the new one is built. The returned
// Pending resolves once the new graph is attached, has failed, or was
// superseded by a later selection.
func (c *Controller) SelectFilter(id filter.ID) (*editing.Pending, error) {
	var (
		pending *editing.Pending
		selErr  error
	)
	err := c.do(func() {
		if !c.session.HasSource() {
			selErr = editing.ErrNoSource
			return
		}
		f, err := c.catalog.Lookup(id)
		if err != nil {
			selErr = err
			return
		}

		c.detachGraph()
		c.previewGen++
		c.session.Filter = f.ID
		c.resetStaleExport()

		pending = editing.NewPending()
		c.buildPreview(c.previewGen, c.session.Source, f, pending)
	})
	if err != nil {
		return nil, err
	}
	return pending, selErr
}

// buildPreview runs on the loop; the build itself happens on a worker
func (c *Controller) buildPreview(gen uint64, clip video.ClipLocation, f filter.Filter, pending *editing.Pending) {
	c.workers.Add(1)
	go func() {
		defer c.workers.Done()

		graph, err := c.engine.BuildPreviewGraph(c.ctx, clip, f, c.opts.Bounds)
		delivered := c.post(func() {
			c.applyPreview(gen, f, graph, err, pending)
		})
		if !delivered {
			if graph != nil {
				graph.Stop()
			}
			pending.Resolve(editing.Outcome{Kind: editing.OutcomeCancelled, Err: editing.ErrSessionClosed})
		}
	}()
}

func (c *Controller) applyPreview(gen uint64, f filter.Filter, graph editing.PreviewGraph, err error, pending *editing.Pending) {
	if gen != c.previewGen {
		if graph != nil {
			graph.Stop()
		}
		c.logger.Debug("discarding superseded preview", "filter", f.ID)
		pending.Resolve(editing.Outcome{Kind: editing.OutcomeCancelled})
		return
	}

	if err == nil {
		if err = c.surface.SetContent(editing.GraphContent(graph)); err == nil {
			err = c.surface.Play()
		}
		if err != nil {
			graph.Stop()
		}
	}

	if err != nil {
		buildErr := &editing.FilterBuildError{Filter: f.ID, Err: err}
		c.logger.Error("preview build failed", "filter", f.ID, "error", err)
		// Only a filter that was previewed may reach an export.
		c.session.Filter = filter.None
		c.session.Previewing = false
		if playErr := c.playClip(); playErr != nil {
			c.logger.Warn("could not restore unfiltered playback", "error", playErr)
		}
		c.emit(editing.EventFilterFailed, buildErr)
		pending.Resolve(editing.Outcome{Kind: editing.OutcomeFailed, Err: buildErr})
		return
	}

	c.graph = graph
	c.session.Previewing = true
	c.logger.Info("preview attached", "filter", f.ID)
	c.emit(editing.EventFilterAttached, nil)
	pending.Resolve(editing.Outcome{Kind: editing.OutcomeCompleted})
}

// ClearFilter removes the filter and returns the surface to the unfiltered clip
func (c *Controller) ClearFilter() error {
	var clearErr error
	err := c.do(func() {
		if !c.session.HasSource() {
			clearErr = editing.ErrNoSource
			return
		}
		c.detachGraph()
		c.previewGen++
		c.session.Filter = filter.None
		c.resetStaleExport()
		clearErr = c.playClip()
		c.emit(editing.EventFilterCleared, clearErr)
	})
	if err != nil {
		return err
	}
	return clearErr
}

// SetTrimRange clamps start and end into the clip and stores [start, end).
// A range with start >= end after clamping is rejected with ErrInvalidTrimRange.
func (c *Controller) SetTrimRange(start, end float64) error {
	var trimErr error
	err := c.do(func() {
		if !c.session.HasSource() {
			trimErr = editing.ErrNoSource
			return
		}
		r, err := video.NewTrimRange(start, end, c.session.Source.Duration)
		if err != nil {
			trimErr = err
			return
		}
		c.session.Trim = r
		c.resetStaleExport()
		c.logger.Debug("trim changed", "range", r.String())
		c.emit(editing.EventTrimChanged, nil)
	})
	if err != nil {
		return err
	}
	return trimErr
}

// ExportCurrent renders the clip with the current filter and trim range.
// It returns immediately; the Pending resolves after the session has moved
// to exported or export_failed. With no clip imported it is a no-op that
// returns ErrNoSource, and while an export is running it returns
// ErrExportInFlight.
func (c *Controller) ExportCurrent() (*editing.Pending, error) {
	var (
		pending *editing.Pending
		expErr  error
	)
	err := c.do(func() {
		if !c.session.HasSource() {
			expErr = editing.ErrNoSource
			return
		}
		if c.session.Export.Phase == editing.ExportRunning {
			expErr = editing.ErrExportInFlight
			return
		}

		req := video.ExportRequest{
			Source:    c.session.Source,
			Range:     c.session.Trim,
			Preset:    c.opts.Preset,
			Container: c.opts.Container,
		}
		if c.session.Filter != filter.None {
			f, err := c.catalog.Lookup(c.session.Filter)
			if err != nil {
				expErr = err
				return
			}
			req.Filter = f
		}
		if err := req.Validate(); err != nil {
			expErr = err
			return
		}

		output := req.OutputPath(c.opts.ExportDir, c.opts.NewID())
		exportCtx, cancel := context.WithCancel(c.ctx)
		c.exportCancel = cancel
		c.session.Export = editing.ExportStatus{Phase: editing.ExportRunning}
		c.logger.Info("export started", "output", output, "filter", req.Filter.ID, "range", req.Range.String())
		c.emit(editing.EventExportStarted, nil)

		pending = editing.NewPending()
		c.runExport(exportCtx, req, output, pending)
	})
	if err != nil {
		return nil, err
	}
	return pending, expErr
}

// runExport runs on the loop; the encode happens on a worker
func (c *Controller) runExport(ctx context.Context, req video.ExportRequest, output string, pending *editing.Pending) {
	c.workers.Add(1)
	go func() {
		defer c.workers.Done()

		err := c.engine.Export(ctx, &req, output)
		if err != nil {
			if rmErr := c.remover.Remove(output); rmErr != nil {
				c.logger.Warn("failed to remove partial export", "output", output, "error", rmErr)
			}
		}

		delivered := c.post(func() {
			c.applyExport(output, err, pending)
		})
		if !delivered {
			pending.Resolve(editing.Outcome{Kind: editing.OutcomeCancelled, Err: editing.ErrSessionClosed})
		}
	}()
}

func (c *Controller) applyExport(output string, err error, pending *editing.Pending) {
	if c.exportCancel != nil {
		c.exportCancel()
		c.exportCancel = nil
	}

	if err == nil {
		c.session.Export = editing.ExportStatus{Phase: editing.ExportCompleted, Output: output}
		c.logger.Info("export completed", "output", output)
		c.emit(editing.EventExportCompleted, nil)
		pending.Resolve(editing.Outcome{Kind: editing.OutcomeCompleted, Output: output})
		return
	}

	reason := &editing.ExportError{Output: output, Err: err}
	c.session.Export = editing.ExportStatus{Phase: editing.ExportFailed, Reason: reason}
	c.logger.Error("export failed", "output", output, "error", err)
	c.emit(editing.EventExportFailed, reason)

	kind := editing.OutcomeFailed
	if errors.Is(err, context.Canceled) {
		kind = editing.OutcomeCancelled
	}
	pending.Resolve(editing.Outcome{Kind: kind, Err: reason})
}

// Close cancels any running export, stops the preview and releases the
// surface. It is safe to call more than once.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		err := c.do(func() {
			if c.exportCancel != nil {
				c.exportCancel()
				c.exportCancel = nil
			}
			c.detachGraph()
			c.previewGen++
			if err := c.surface.Close(); err != nil {
				c.closeErr = fmt.Errorf("failed to close playback surface: %w", err)
			}
			c.emit(editing.EventClosed, nil)
			c.stopped = true
		})
		if err != nil && c.closeErr == nil {
			c.closeErr = err
		}
		c.cancel()
		c.workers.Wait()
	})
	return c.closeErr
}

// detachGraph stops the attached preview graph, if any. Loop only.
func (c *Controller) detachGraph() {
	if c.graph == nil {
		return
	}
	if err := c.graph.Stop(); err != nil {
		c.logger.Warn("preview graph did not stop cleanly", "filter", c.graph.Filter(), "error", err)
	}
	c.graph = nil
	c.session.Previewing = false
}

// playClip shows the unfiltered source. Loop only.
func (c *Controller) playClip() error {
	if err := c.surface.SetContent(editing.ClipContent(c.session.Source.Path)); err != nil {
		return fmt.Errorf("failed to show clip: %w", err)
	}
	if err := c.surface.Play(); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	return nil
}

// resetStaleExport returns a finished export status to idle after an edit. Loop only.
func (c *Controller) resetStaleExport() {
	if c.session.Export.Terminal() {
		c.session.Export = editing.ExportStatus{}
	}
}

func shortID() string {
	return uuid.NewString()[:8]
}

// Ensure Controller implements filter.CatalogProvider
var _ filter.CatalogProvider = (*Controller)(nil)

package editing

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"clip-editor/domain/editing"
	"clip-editor/domain/filter"
	"clip-editor/domain/video"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	path string
	err  error
}

func (f *fakeSource) PickVideo(ctx context.Context) (string, error) {
	return f.path, f.err
}

type fakeFiles struct {
	missing bool
}

func (f *fakeFiles) Exists(path string) bool {
	return !f.missing
}

type fakeProber struct {
	duration float64
	err      error
}

func (f *fakeProber) Duration(ctx context.Context, path string) (float64, error) {
	return f.duration, f.err
}

type fakeGraph struct {
	filter filter.ID
	frames chan editing.Frame

	mu      sync.Mutex
	stopped bool
}

func newFakeGraph(id filter.ID) *fakeGraph {
	return &fakeGraph{filter: id, frames: make(chan editing.Frame)}
}

func (g *fakeGraph) Filter() filter.ID { return g.filter }
func (g *fakeGraph) Frames() <-chan editing.Frame { return g.frames }

func (g *fakeGraph) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.stopped {
		g.stopped = true
		close(g.frames)
	}
	return nil
}

func (g *fakeGraph) isStopped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stopped
}

type fakeSurface struct {
	mu       sync.Mutex
	bounds   editing.Bounds
	content  editing.Content
	history  []editing.Content
	plays    int
	closed   bool
	graphErr error
}

func (s *fakeSurface) Attach(bounds editing.Bounds) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds = bounds
	return nil
}

func (s *fakeSurface) SetContent(content editing.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if content.IsGraph() && s.graphErr != nil {
		return s.graphErr
	}
	s.content = content
	s.history = append(s.history, content)
	return nil
}

func (s *fakeSurface) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays++
	return nil
}

func (s *fakeSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSurface) current() editing.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

type fakeEngine struct {
	mu         sync.Mutex
	graphs     []*fakeGraph
	buildErr   map[filter.ID]error
	buildGate  map[filter.ID]chan struct{}
	exports    []video.ExportRequest
	exportErr  error
	exportGate chan struct{}
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		buildErr:  map[filter.ID]error{},
		buildGate: map[filter.ID]chan struct{}{},
	}
}

func (e *fakeEngine) BuildPreviewGraph(ctx context.Context, clip video.ClipLocation, f filter.Filter, bounds editing.Bounds) (editing.PreviewGraph, error) {
	e.mu.Lock()
	gate := e.buildGate[f.ID]
	err := e.buildErr[f.ID]
	e.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	g := newFakeGraph(f.ID)
	e.mu.Lock()
	e.graphs = append(e.graphs, g)
	e.mu.Unlock()
	return g, nil
}

func (e *fakeEngine) Export(ctx context.Context, req *video.ExportRequest, outputPath string) error {
	e.mu.Lock()
	e.exports = append(e.exports, *req)
	gate := e.exportGate
	err := e.exportErr
	e.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// liveGraphs returns the graphs that were built and not yet stopped
func (e *fakeEngine) liveGraphs() []*fakeGraph {
	e.mu.Lock()
	defer e.mu.Unlock()
	var live []*fakeGraph
	for _, g := range e.graphs {
		if !g.isStopped() {
			live = append(live, g)
		}
	}
	return live
}

type fakeRemover struct {
	mu      sync.Mutex
	removed []string
}

func (r *fakeRemover) Remove(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, path)
	return nil
}

func (r *fakeRemover) paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.removed...)
}

type harness struct {
	ctrl    *Controller
	source  *fakeSource
	files   *fakeFiles
	prober  *fakeProber
	surface *fakeSurface
	engine  *fakeEngine
	remover *fakeRemover
	dir     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		source:  &fakeSource{path: "/clips/beach.mov"},
		files:   &fakeFiles{},
		prober:  &fakeProber{duration: 10},
		surface: &fakeSurface{},
		engine:  newFakeEngine(),
		remover: &fakeRemover{},
		dir:     t.TempDir(),
	}

	ctrl, err := NewController(h.source, h.files, h.prober, h.surface, h.engine, nil, h.remover, Options{
		ExportDir: h.dir,
		NewID:     func() string { return "1a2b3c4d" },
	})
	require.NoError(t, err)
	t.Cleanup(func() { ctrl.Close() })

	h.ctrl = ctrl
	return h
}

func waitOutcome(t *testing.T, p *editing.Pending) editing.Outcome {
	t.Helper()
	require.NotNil(t, p)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	o, err := p.Wait(ctx)
	require.NoError(t, err, "pending operation did not resolve")
	return o
}

func TestController_AttachesSurfaceAtDefaultBounds(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, DefaultBounds, h.surface.bounds)
	assert.Equal(t, editing.StateEmpty, h.ctrl.Snapshot().State())
}

func TestController_TenSecondClipScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.ctrl.ImportClip(ctx))
	s := h.ctrl.Snapshot()
	assert.Equal(t, editing.StateLoaded, s.State())
	assert.Equal(t, video.TrimRange{Start: 0, End: 10}, s.Trim)
	assert.Equal(t, editing.ClipContent("/clips/beach.mov"), h.surface.current())

	require.NoError(t, h.ctrl.SetTrimRange(2, 8))
	assert.Equal(t, video.TrimRange{Start: 2, End: 8}, h.ctrl.Snapshot().Trim)

	p, err := h.ctrl.SelectFilter("sepia")
	require.NoError(t, err)
	assert.Equal(t, editing.OutcomeCompleted, waitOutcome(t, p).Kind)

	s = h.ctrl.Snapshot()
	assert.Equal(t, editing.StatePreviewing, s.State())
	assert.Equal(t, filter.ID("sepia"), s.Filter)
	require.True(t, h.surface.current().IsGraph())
	assert.Equal(t, filter.ID("sepia"), h.surface.current().Graph.Filter())

	p, err = h.ctrl.ExportCurrent()
	require.NoError(t, err)
	o := waitOutcome(t, p)
	require.Equal(t, editing.OutcomeCompleted, o.Kind)
	assert.Equal(t, filepath.Join(h.dir, "beach_sepia_1a2b3c4d.mov"), o.Output)

	s = h.ctrl.Snapshot()
	assert.Equal(t, editing.StateExported, s.State())
	assert.Equal(t, o.Output, s.Export.Output)

	require.Len(t, h.engine.exports, 1)
	req := h.engine.exports[0]
	assert.Equal(t, video.TrimRange{Start: 2, End: 8}, req.Range)
	assert.Equal(t, filter.ID("sepia"), req.Filter.ID)
	assert.Equal(t, video.PresetHighest, req.Preset)
}

func TestController_ExportWithoutSource(t *testing.T) {
	h := newHarness(t)

	p, err := h.ctrl.ExportCurrent()
	assert.Nil(t, p)
	assert.ErrorIs(t, err, editing.ErrNoSource)
	assert.Equal(t, editing.StateEmpty, h.ctrl.Snapshot().State())
	assert.Empty(t, h.engine.exports)
}

func TestController_OperationsWithoutSource(t *testing.T) {
	h := newHarness(t)

	_, err := h.ctrl.SelectFilter("sepia")
	assert.ErrorIs(t, err, editing.ErrNoSource)
	assert.ErrorIs(t, h.ctrl.ClearFilter(), editing.ErrNoSource)
	assert.ErrorIs(t, h.ctrl.SetTrimRange(1, 2), editing.ErrNoSource)
	assert.Equal(t, editing.StateEmpty, h.ctrl.Snapshot().State())
}

func TestController_ExportWhileExportingIsRejected(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))

	gate := make(chan struct{})
	h.engine.exportGate = gate

	first, err := h.ctrl.ExportCurrent()
	require.NoError(t, err)
	assert.Equal(t, editing.StateExporting, h.ctrl.Snapshot().State())

	second, err := h.ctrl.ExportCurrent()
	assert.Nil(t, second)
	assert.ErrorIs(t, err, editing.ErrExportInFlight)

	close(gate)
	assert.Equal(t, editing.OutcomeCompleted, waitOutcome(t, first).Kind)
	assert.Len(t, h.engine.exports, 1)

	// a terminal export may be re-run
	again, err := h.ctrl.ExportCurrent()
	require.NoError(t, err)
	assert.Equal(t, editing.OutcomeCompleted, waitOutcome(t, again).Kind)
}

func TestController_ExportUsesSnapshot(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))
	require.NoError(t, h.ctrl.SetTrimRange(1, 9))

	gate := make(chan struct{})
	h.engine.exportGate = gate

	p, err := h.ctrl.ExportCurrent()
	require.NoError(t, err)

	require.NoError(t, h.ctrl.SetTrimRange(3, 4))
	close(gate)
	waitOutcome(t, p)

	assert.Equal(t, video.TrimRange{Start: 1, End: 9}, h.engine.exports[0].Range)
}

func TestController_ImportWhileExportingIsRejected(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))

	gate := make(chan struct{})
	h.engine.exportGate = gate
	p, err := h.ctrl.ExportCurrent()
	require.NoError(t, err)

	assert.ErrorIs(t, h.ctrl.ImportClip(context.Background()), editing.ErrExportInFlight)
	assert.ErrorIs(t, h.ctrl.ImportLocation(context.Background(), "/clips/other.mov"), editing.ErrExportInFlight)

	close(gate)
	waitOutcome(t, p)
}

func TestController_ReselectingFilterLeavesOneGraph(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))

	for _, id := range []filter.ID{"sepia", "sepia", "mono", "mono"} {
		p, err := h.ctrl.SelectFilter(id)
		require.NoError(t, err)
		require.Equal(t, editing.OutcomeCompleted, waitOutcome(t, p).Kind)

		live := h.engine.liveGraphs()
		require.Len(t, live, 1, "after selecting %s", id)
		assert.Equal(t, id, live[0].Filter())
		assert.Same(t, live[0], h.surface.current().Graph)
	}
}

func TestController_SupersededBuildIsDiscarded(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))

	gate := make(chan struct{})
	h.engine.buildGate["sepia"] = gate

	slow, err := h.ctrl.SelectFilter("sepia")
	require.NoError(t, err)

	fast, err := h.ctrl.SelectFilter("mono")
	require.NoError(t, err)
	require.Equal(t, editing.OutcomeCompleted, waitOutcome(t, fast).Kind)

	close(gate)
	assert.Equal(t, editing.OutcomeCancelled, waitOutcome(t, slow).Kind)

	live := h.engine.liveGraphs()
	require.Len(t, live, 1)
	assert.Equal(t, filter.ID("mono"), live[0].Filter())
	assert.Equal(t, filter.ID("mono"), h.ctrl.Snapshot().Filter)
}

func TestController_UnknownFilter(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))

	p, err := h.ctrl.SelectFilter("glitter")
	assert.Nil(t, p)
	assert.ErrorIs(t, err, editing.ErrUnknownFilter)
	assert.Equal(t, filter.None, h.ctrl.Snapshot().Filter)
}

func TestController_FilterBuildFailureStaysLoaded(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))
	h.engine.buildErr["vivid"] = errors.New("No such filter: 'eq'")

	p, err := h.ctrl.SelectFilter("vivid")
	require.NoError(t, err)
	o := waitOutcome(t, p)

	assert.Equal(t, editing.OutcomeFailed, o.Kind)
	var buildErr *editing.FilterBuildError
	require.ErrorAs(t, o.Err, &buildErr)
	assert.Equal(t, filter.ID("vivid"), buildErr.Filter)

	s := h.ctrl.Snapshot()
	assert.Equal(t, editing.StateLoaded, s.State())
	assert.Equal(t, filter.None, s.Filter)
	assert.Equal(t, editing.ClipContent("/clips/beach.mov"), h.surface.current())
}

func TestController_ExportAfterFailedPreviewIsUnfiltered(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))

	p, err := h.ctrl.SelectFilter("sepia")
	require.NoError(t, err)
	require.Equal(t, editing.OutcomeCompleted, waitOutcome(t, p).Kind)

	h.engine.buildErr["vivid"] = errors.New("No such filter: 'eq'")
	p, err = h.ctrl.SelectFilter("vivid")
	require.NoError(t, err)
	require.Equal(t, editing.OutcomeFailed, waitOutcome(t, p).Kind)

	p, err = h.ctrl.ExportCurrent()
	require.NoError(t, err)
	o := waitOutcome(t, p)
	require.Equal(t, editing.OutcomeCompleted, o.Kind)

	require.Len(t, h.engine.exports, 1)
	assert.False(t, h.engine.exports[0].HasFilter())
	assert.Contains(t, o.Output, "_original_")
}

func TestController_SurfaceRejectsGraph(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))
	h.surface.graphErr = errors.New("render target busy")

	p, err := h.ctrl.SelectFilter("sepia")
	require.NoError(t, err)
	assert.Equal(t, editing.OutcomeFailed, waitOutcome(t, p).Kind)
	assert.Empty(t, h.engine.liveGraphs())
	assert.Equal(t, editing.StateLoaded, h.ctrl.Snapshot().State())
}

func TestController_ClearFilter(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))

	p, err := h.ctrl.SelectFilter("invert")
	require.NoError(t, err)
	waitOutcome(t, p)

	require.NoError(t, h.ctrl.ClearFilter())
	s := h.ctrl.Snapshot()
	assert.Equal(t, filter.None, s.Filter)
	assert.Equal(t, editing.StateLoaded, s.State())
	assert.Empty(t, h.engine.liveGraphs())
	assert.Equal(t, editing.ClipContent("/clips/beach.mov"), h.surface.current())
}

func TestController_SetTrimRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
		want       video.TrimRange
		wantErr    bool
	}{
		{name: "inside clip", start: 2, end: 8, want: video.TrimRange{Start: 2, End: 8}},
		{name: "whole clip", start: 0, end: 10, want: video.TrimRange{Start: 0, End: 10}},
		{name: "clamps below zero", start: -3, end: 4, want: video.TrimRange{Start: 0, End: 4}},
		{name: "clamps past end", start: 6, end: 42, want: video.TrimRange{Start: 6, End: 10}},
		{name: "equal bounds", start: 5, end: 5, wantErr: true},
		{name: "inverted", start: 8, end: 2, wantErr: true},
		{name: "empty after clamping", start: 12, end: 15, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.ctrl.ImportClip(context.Background()))

			err := h.ctrl.SetTrimRange(tt.start, tt.end)
			got := h.ctrl.Snapshot().Trim
			if tt.wantErr {
				assert.ErrorIs(t, err, editing.ErrInvalidTrimRange)
				assert.Equal(t, video.TrimRange{Start: 0, End: 10}, got, "range must be unchanged")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestController_ImportCancelledIsNoOp(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))
	require.NoError(t, h.ctrl.SetTrimRange(1, 3))
	before := h.ctrl.Snapshot()

	h.source.err = editing.ErrImportCancelled
	err := h.ctrl.ImportClip(context.Background())
	assert.ErrorIs(t, err, editing.ErrImportCancelled)
	assert.Equal(t, before, h.ctrl.Snapshot())
}

func TestController_ImportFailures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		h := newHarness(t)
		h.files.missing = true
		assert.ErrorContains(t, h.ctrl.ImportClip(context.Background()), "does not exist")
		assert.Equal(t, editing.StateEmpty, h.ctrl.Snapshot().State())
	})

	t.Run("duration read fails", func(t *testing.T) {
		h := newHarness(t)
		h.prober.err = errors.New("moov atom not found")
		assert.ErrorContains(t, h.ctrl.ImportClip(context.Background()), "moov atom not found")
		assert.Equal(t, editing.StateEmpty, h.ctrl.Snapshot().State())
	})

	t.Run("zero duration", func(t *testing.T) {
		h := newHarness(t)
		h.prober.duration = 0
		assert.Error(t, h.ctrl.ImportClip(context.Background()))
	})
}

func TestController_ReimportResetsSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))
	require.NoError(t, h.ctrl.SetTrimRange(2, 4))
	p, err := h.ctrl.SelectFilter("mono")
	require.NoError(t, err)
	waitOutcome(t, p)

	h.prober.duration = 30
	require.NoError(t, h.ctrl.ImportLocation(context.Background(), "/clips/park.mp4"))

	s := h.ctrl.Snapshot()
	assert.Equal(t, "/clips/park.mp4", s.Source.Path)
	assert.Equal(t, video.TrimRange{Start: 0, End: 30}, s.Trim)
	assert.Equal(t, filter.None, s.Filter)
	assert.Empty(t, h.engine.liveGraphs())
	assert.Equal(t, editing.ClipContent("/clips/park.mp4"), h.surface.current())
}

func TestController_ExportFailureCleansUpAndAllowsRetry(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))
	h.engine.exportErr = errors.New("Conversion failed!")

	p, err := h.ctrl.ExportCurrent()
	require.NoError(t, err)
	o := waitOutcome(t, p)

	assert.Equal(t, editing.OutcomeFailed, o.Kind)
	var exportErr *editing.ExportError
	require.ErrorAs(t, o.Err, &exportErr)
	assert.Contains(t, exportErr.Error(), "Conversion failed!")

	s := h.ctrl.Snapshot()
	assert.Equal(t, editing.StateExportFailed, s.State())
	assert.Equal(t, []string{filepath.Join(h.dir, "beach_original_1a2b3c4d.mov")}, h.remover.paths())

	h.engine.exportErr = nil
	p, err = h.ctrl.ExportCurrent()
	require.NoError(t, err)
	assert.Equal(t, editing.OutcomeCompleted, waitOutcome(t, p).Kind)
	assert.Equal(t, editing.StateExported, h.ctrl.Snapshot().State())
}

func TestController_EditAfterExportResetsStatus(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))

	p, err := h.ctrl.ExportCurrent()
	require.NoError(t, err)
	waitOutcome(t, p)
	require.Equal(t, editing.StateExported, h.ctrl.Snapshot().State())

	require.NoError(t, h.ctrl.SetTrimRange(1, 2))
	assert.Equal(t, editing.ExportIdle, h.ctrl.Snapshot().Export.Phase)
}

func TestController_CloseCancelsExport(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))
	p, err := h.ctrl.SelectFilter("fade")
	require.NoError(t, err)
	waitOutcome(t, p)

	h.engine.exportGate = make(chan struct{})
	exp, err := h.ctrl.ExportCurrent()
	require.NoError(t, err)

	require.NoError(t, h.ctrl.Close())
	o := waitOutcome(t, exp)

	assert.Equal(t, editing.OutcomeCancelled, o.Kind)
	assert.Equal(t, []string{filepath.Join(h.dir, "beach_fade_1a2b3c4d.mov")}, h.remover.paths())
	assert.Empty(t, h.engine.liveGraphs())
	assert.True(t, h.surface.closed)

	// closing twice is harmless and later calls report the closed session
	assert.NoError(t, h.ctrl.Close())
	_, err = h.ctrl.ExportCurrent()
	assert.ErrorIs(t, err, editing.ErrSessionClosed)
	assert.ErrorIs(t, h.ctrl.ImportClip(context.Background()), editing.ErrSessionClosed)
}

func TestController_Events(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.ImportClip(context.Background()))
	require.NoError(t, h.ctrl.SetTrimRange(2, 8))
	require.NoError(t, h.ctrl.Close())

	var types []editing.EventType
	for ev := range h.ctrl.Events() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []editing.EventType{
		editing.EventImported,
		editing.EventTrimChanged,
		editing.EventClosed,
	}, types)
}

func TestController_FiltersComeFromCatalog(t *testing.T) {
	catalog, err := filter.DefaultCatalog().Restrict([]string{"mono", "sepia"})
	require.NoError(t, err)

	ctrl, err := NewController(&fakeSource{}, &fakeFiles{}, &fakeProber{duration: 1}, &fakeSurface{}, newFakeEngine(), catalog, &fakeRemover{}, Options{})
	require.NoError(t, err)
	defer ctrl.Close()

	var ids []filter.ID
	for _, f := range ctrl.Filters() {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []filter.ID{"sepia", "mono"}, ids)
}

package cmd

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	appediting "clip-editor/application/editing"
	"clip-editor/domain/distribution"
	"clip-editor/domain/editing"
	"clip-editor/domain/filter"
	"clip-editor/domain/video"
	"clip-editor/infrastructure/picker"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFiles struct {
	mu      sync.Mutex
	exists  map[string]bool
	removed []string
}

func (s *stubFiles) Exists(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exists[path]
}

func (s *stubFiles) Remove(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, path)
	return nil
}

type stubProber struct {
	duration float64
}

func (s stubProber) Duration(ctx context.Context, path string) (float64, error) {
	return s.duration, nil
}

type stubSurface struct{}

func (stubSurface) Attach(bounds editing.Bounds) error { return nil }
func (stubSurface) SetContent(content editing.Content) error { return nil }
func (stubSurface) Play() error { return nil }
func (stubSurface) Close() error { return nil }

type stubGraph struct {
	id     filter.ID
	frames chan editing.Frame
	once   sync.Once
}

func (g *stubGraph) Filter() filter.ID { return g.id }

func (g *stubGraph) Frames() <-chan editing.Frame { return g.frames }

func (g *stubGraph) Stop() error {
	g.once.Do(func() { close(g.frames) })
	return nil
}

type stubEngine struct {
	mu        sync.Mutex
	buildErr  error
	exportErr error
	requests  []video.ExportRequest
	outputs   []string
}

func (e *stubEngine) BuildPreviewGraph(ctx context.Context, clip video.ClipLocation, f filter.Filter, bounds editing.Bounds) (editing.PreviewGraph, error) {
	if e.buildErr != nil {
		return nil, e.buildErr
	}
	return &stubGraph{id: f.ID, frames: make(chan editing.Frame)}, nil
}

func (e *stubEngine) Export(ctx context.Context, req *video.ExportRequest, outputPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests = append(e.requests, *req)
	e.outputs = append(e.outputs, outputPath)
	return e.exportErr
}

type stubPublisher struct {
	published []string
	err       error
}

func (p *stubPublisher) PublishExport(ctx context.Context, path string) (*distribution.UploadResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.published = append(p.published, path)
	return &distribution.UploadResult{FileID: "f1", ShareableURL: "https://drive.google.com/file/d/f1/view?usp=sharing"}, nil
}

func testDeps(source string, engine *stubEngine, files *stubFiles) SessionDeps {
	return SessionDeps{
		Source:  picker.Static(source),
		Files:   files,
		Prober:  stubProber{duration: 10},
		Surface: stubSurface{},
		Engine:  engine,
		Catalog: filter.DefaultCatalog(),
		Remover: files,
		Options: appediting.Options{
			ExportDir: "/exports",
			Logger:    hclog.NewNullLogger(),
			NewID:     func() string { return "0badc0de" },
		},
	}
}

func TestRunExportWithDependencies(t *testing.T) {
	tests := []struct {
		name       string
		input      ExportInput
		buildErr   error
		exportErr  error
		wantOutput string
		wantRange  string
		wantErr    error
		wantErrMsg string
	}{
		{
			name:       "filtered trim",
			input:      ExportInput{Filter: "sepia", StartTime: "2", EndTime: "00:00:08"},
			wantOutput: "/exports/clip_sepia_0badc0de.mov",
			wantRange:  "[00:00:02.000, 00:00:08.000)",
		},
		{
			name:       "only end given",
			input:      ExportInput{EndTime: "4.5"},
			wantOutput: "/exports/clip_original_0badc0de.mov",
			wantRange:  "[00:00:00.000, 00:00:04.500)",
		},
		{
			name:    "inverted range",
			input:   ExportInput{StartTime: "8", EndTime: "2"},
			wantErr: editing.ErrInvalidTrimRange,
		},
		{
			name:       "bad timestamp",
			input:      ExportInput{StartTime: "soon"},
			wantErrMsg: "invalid start time",
		},
		{
			name:    "unknown filter",
			input:   ExportInput{Filter: "glitter"},
			wantErr: editing.ErrUnknownFilter,
		},
		{
			name:       "preview build fails",
			input:      ExportInput{Filter: "mono"},
			buildErr:   errors.New("No such filter"),
			wantErrMsg: "preview for filter \"mono\" failed",
		},
		{
			name:       "encoder fails",
			input:      ExportInput{},
			exportErr:  errors.New("Conversion failed!"),
			wantErrMsg: "Conversion failed!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &stubEngine{buildErr: tt.buildErr, exportErr: tt.exportErr}
			files := &stubFiles{exists: map[string]bool{"/clips/clip.mov": true}}
			var out bytes.Buffer

			got, err := RunExportWithDependencies(context.Background(), testDeps("/clips/clip.mov", engine, files), tt.input, nil, &out)

			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, engine.requests)
				return
			case tt.wantErrMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantOutput, got)
			assert.Contains(t, out.String(), "Successfully created: "+tt.wantOutput)
			require.Len(t, engine.requests, 1)
			assert.Equal(t, tt.wantRange, engine.requests[0].Range.String())
			assert.Equal(t, tt.wantOutput, engine.outputs[0])
		})
	}
}

func TestRunExportWithDependencies_NoSource(t *testing.T) {
	engine := &stubEngine{}
	files := &stubFiles{exists: map[string]bool{}}

	_, err := RunExportWithDependencies(context.Background(), testDeps("", engine, files), ExportInput{}, nil, &bytes.Buffer{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no source clip given")
	assert.Empty(t, engine.requests)
}

func TestRunExportWithDependencies_RemovesPartialOutput(t *testing.T) {
	engine := &stubEngine{exportErr: errors.New("disk full")}
	files := &stubFiles{exists: map[string]bool{"/clips/clip.mov": true}}

	_, err := RunExportWithDependencies(context.Background(), testDeps("/clips/clip.mov", engine, files), ExportInput{Filter: "invert"}, nil, &bytes.Buffer{})

	var exportErr *editing.ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, "/exports/clip_invert_0badc0de.mov", exportErr.Output)
	assert.Contains(t, files.removed, "/exports/clip_invert_0badc0de.mov")
}

func TestRunExportWithDependencies_Publishes(t *testing.T) {
	engine := &stubEngine{}
	files := &stubFiles{exists: map[string]bool{"/clips/clip.mov": true}}
	publisher := &stubPublisher{}
	var out bytes.Buffer

	got, err := RunExportWithDependencies(context.Background(), testDeps("/clips/clip.mov", engine, files), ExportInput{}, publisher, &out)

	require.NoError(t, err)
	assert.Equal(t, []string{got}, publisher.published)
	assert.Contains(t, out.String(), "Shareable URL: https://drive.google.com/file/d/f1/view?usp=sharing")
}

func TestRunExportWithDependencies_PublishFailureKeepsExport(t *testing.T) {
	engine := &stubEngine{}
	files := &stubFiles{exists: map[string]bool{"/clips/clip.mov": true}}
	publisher := &stubPublisher{err: errors.New("quota exceeded")}

	got, err := RunExportWithDependencies(context.Background(), testDeps("/clips/clip.mov", engine, files), ExportInput{}, publisher, &bytes.Buffer{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "export succeeded but publishing failed")
	assert.Equal(t, "/exports/clip_original_0badc0de.mov", got)
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		wantStart float64
		wantEnd   float64
		wantErr   bool
	}{
		{"both empty", "", "", 0, 10, false},
		{"seconds", "1.5", "3", 1.5, 3, false},
		{"clock", "00:00:02", "00:00:07.250", 2, 7.25, false},
		{"bad start", "x", "", 0, 0, true},
		{"bad end", "", "y", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := parseRange(tt.start, tt.end, 10)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantStart, start, 1e-9)
			assert.InDelta(t, tt.wantEnd, end, 1e-9)
		})
	}
}

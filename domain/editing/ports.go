package editing

import (
	"context"

	"clip-editor/domain/filter"
	"clip-editor/domain/video"
)

// MediaSource supplies a clip chosen by the user
type MediaSource interface {
	// PickVideo returns the path of the chosen clip, or ErrImportCancelled
	PickVideo(ctx context.Context) (string, error)
}

// Prober reads clip metadata
type Prober interface {
	// Duration returns the clip duration in seconds
	Duration(ctx context.Context, path string) (float64, error)
}

// Bounds is the visual size of the playback surface, in pixels
type Bounds struct {
	Width  int
	Height int
}

// Frame is one decoded picture in packed BGR24 layout
type Frame struct {
	Width  int
	Height int
	Data   []byte
}

// PreviewGraph is a running source -> filter -> sink pipeline
type PreviewGraph interface {
	Filter() filter.ID
	// Frames delivers rendered frames until the graph stops; it is closed on stop
	Frames() <-chan Frame
	// Stop tears the graph down and waits for it to exit
	Stop() error
}

// Content is what the surface renders: an unfiltered clip or a preview graph output
type Content struct {
	Clip  string
	Graph PreviewGraph
}

// ClipContent plays a clip as-is
func ClipContent(path string) Content {
	return Content{Clip: path}
}

// GraphContent renders the frames of a preview graph
func GraphContent(g PreviewGraph) Content {
	return Content{Graph: g}
}

// IsGraph returns true if the content is a preview graph
func (c Content) IsGraph() bool {
	return c.Graph != nil
}

// Surface renders the current content at fixed bounds. It holds a single
// render target, so SetContent replaces whatever was shown before.
type Surface interface {
	Attach(bounds Bounds) error
	SetContent(content Content) error
	Play() error
	Close() error
}

// Engine applies filters for preview and renders trimmed, filtered exports
type Engine interface {
	BuildPreviewGraph(ctx context.Context, clip video.ClipLocation, f filter.Filter, bounds Bounds) (PreviewGraph, error)
	Export(ctx context.Context, req *video.ExportRequest, outputPath string) error
}

package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"clip-editor/domain/editing"
	"clip-editor/domain/filter"
	"clip-editor/domain/video"

	"github.com/hashicorp/go-hclog"
)

// DefaultFirstFrameTimeout bounds how long a preview graph may take to render its first frame
const DefaultFirstFrameTimeout = 10 * time.Second

// Engine implements editing.Engine using ffmpeg
type Engine struct {
	ffmpegPath        string
	runner            CommandRunner
	firstFrameTimeout time.Duration
	logger            hclog.Logger
}

// EngineOption is a functional option for configuring Engine
type EngineOption func(*Engine)

// WithFFmpegPath sets a custom ffmpeg executable path
func WithFFmpegPath(path string) EngineOption {
	return func(e *Engine) {
		if path != "" {
			e.ffmpegPath = path
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner CommandRunner) EngineOption {
	return func(e *Engine) {
		e.runner = runner
	}
}

// WithFirstFrameTimeout overrides DefaultFirstFrameTimeout
func WithFirstFrameTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.firstFrameTimeout = d
	}
}

// WithLogger sets the logger
func WithLogger(logger hclog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a new FFmpeg-based filter/export engine
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		ffmpegPath:        "ffmpeg",
		runner:            &ExecCommandRunner{},
		firstFrameTimeout: DefaultFirstFrameTimeout,
		logger:            hclog.NewNullLogger(),
	}

	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.Named("ffmpeg")

	return e
}

// secondsArg formats s for ffmpeg without rounding, so ranges shorter than the
// displayed millisecond precision still cut what was stored
func secondsArg(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

// ExportArgs builds the ffmpeg arguments rendering req to outputPath
func ExportArgs(req *video.ExportRequest, outputPath string) []string {
	args := []string{"-hide_banner", "-y"}

	if req.Range.Start > 0 {
		args = append(args, "-ss", secondsArg(req.Range.Start.Seconds()))
	}
	args = append(args, "-i", req.Source.Path)
	if !req.Range.IsFull(req.Source.Duration) {
		args = append(args, "-t", secondsArg(req.Range.Length()))
	}

	if req.HasFilter() {
		args = append(args, "-vf", req.Filter.Expr)
	}

	switch req.EffectivePreset() {
	case video.PresetPassthrough:
		args = append(args, "-c", "copy")
	case video.PresetMedium:
		args = append(args, "-c:v", "libx264", "-preset", "medium", "-crf", "23", "-pix_fmt", "yuv420p", "-c:a", "aac", "-b:a", "128k")
	default:
		args = append(args, "-c:v", "libx264", "-preset", "slow", "-crf", "18", "-pix_fmt", "yuv420p", "-c:a", "aac", "-b:a", "192k")
	}

	switch strings.ToLower(req.Container) {
	case "mov", "mp4", "m4v":
		args = append(args, "-movflags", "+faststart")
	}

	return append(args, outputPath)
}

// Export implements editing.Engine
func (e *Engine) Export(ctx context.Context, req *video.ExportRequest, outputPath string) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	args := ExportArgs(req, outputPath)
	e.logger.Debug("running export", "args", strings.Join(args, " "))

	if err := e.runner.Run(ctx, e.ffmpegPath, args...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ffmpeg export cancelled: %w", ctxErr)
		}
		return fmt.Errorf("ffmpeg export failed: %w", err)
	}

	return nil
}

// PreviewArgs builds the ffmpeg arguments for a looping, real-time preview
// that writes letterboxed BGR24 frames of exactly bounds size to stdout
func PreviewArgs(clip video.ClipLocation, f filter.Filter, bounds editing.Bounds) []string {
	fit := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		bounds.Width, bounds.Height, bounds.Width, bounds.Height)
	chain := fit
	if f.Expr != "" {
		chain = f.Expr + "," + fit
	}

	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-re",
		"-stream_loop", "-1",
		"-i", clip.Path,
		"-vf", chain,
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"pipe:1",
	}
}

// BuildPreviewGraph implements editing.Engine. It returns once the first
// frame has been rendered, so a filter ffmpeg rejects fails here rather than
// after the graph has been attached.
func (e *Engine) BuildPreviewGraph(ctx context.Context, clip video.ClipLocation, f filter.Filter, bounds editing.Bounds) (editing.PreviewGraph, error) {
	if clip.Path == "" {
		return nil, fmt.Errorf("source path is required")
	}
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return nil, fmt.Errorf("invalid preview bounds %dx%d", bounds.Width, bounds.Height)
	}

	graphCtx, cancel := context.WithCancel(ctx)
	proc, err := e.runner.Start(graphCtx, e.ffmpegPath, PreviewArgs(clip, f, bounds)...)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start ffmpeg preview: %w", err)
	}

	g := &previewGraph{
		filter: f.ID,
		proc:   proc,
		cancel: cancel,
		bounds: bounds,
		frames: make(chan editing.Frame, 2),
		done:   make(chan struct{}),
		logger: e.logger.With("filter", f.ID),
	}

	timer := time.AfterFunc(e.firstFrameTimeout, cancel)
	first, err := g.readFrame()
	timedOut := !timer.Stop()
	if err != nil {
		cancel()
		waitErr := proc.Wait()
		if timedOut {
			return nil, fmt.Errorf("ffmpeg preview produced no frame within %s", e.firstFrameTimeout)
		}
		if waitErr != nil {
			return nil, fmt.Errorf("ffmpeg preview failed: %w", waitErr)
		}
		return nil, fmt.Errorf("ffmpeg preview failed: %w", err)
	}
	// The timer can fire between a successful read and Stop, and ctx can end
	// while the first frame is read. Either way the pump would die at once.
	if ctxErr := graphCtx.Err(); ctxErr != nil {
		cancel()
		proc.Wait()
		if timedOut {
			return nil, fmt.Errorf("ffmpeg preview produced no frame within %s", e.firstFrameTimeout)
		}
		return nil, fmt.Errorf("ffmpeg preview cancelled: %w", ctxErr)
	}

	g.frames <- first
	go g.pump(graphCtx)
	return g, nil
}

// VerifyInstalled checks that ffmpeg is available
func (e *Engine) VerifyInstalled(ctx context.Context) error {
	_, err := e.runner.Output(ctx, e.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

// previewGraph is a running ffmpeg process decoding through a filter into raw frames
type previewGraph struct {
	filter filter.ID
	proc   Process
	cancel context.CancelFunc
	bounds editing.Bounds
	frames chan editing.Frame
	done   chan struct{}
	logger hclog.Logger

	stopOnce sync.Once
	stopErr  error
}

func (g *previewGraph) Filter() filter.ID {
	return g.filter
}

func (g *previewGraph) Frames() <-chan editing.Frame {
	return g.frames
}

func (g *previewGraph) readFrame() (editing.Frame, error) {
	buf := make([]byte, g.bounds.Width*g.bounds.Height*3)
	if _, err := io.ReadFull(g.proc.Stdout(), buf); err != nil {
		return editing.Frame{}, err
	}
	return editing.Frame{Width: g.bounds.Width, Height: g.bounds.Height, Data: buf}, nil
}

func (g *previewGraph) pump(ctx context.Context) {
	defer close(g.done)
	defer close(g.frames)

	for {
		frame, err := g.readFrame()
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				g.logger.Warn("preview stream ended", "error", err)
			}
			return
		}
		select {
		case g.frames <- frame:
		case <-ctx.Done():
			return
		}
	}
}

// Stop kills the ffmpeg process and waits until the frame stream is closed
func (g *previewGraph) Stop() error {
	g.stopOnce.Do(func() {
		g.cancel()
		<-g.done
		if err := g.proc.Wait(); err != nil && !isKilled(err) {
			g.stopErr = err
		}
	})
	return g.stopErr
}

// isKilled reports whether err is the result of our own cancellation
func isKilled(err error) bool {
	return errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "signal: killed")
}

// Ensure Engine implements editing.Engine
var _ editing.Engine = (*Engine)(nil)

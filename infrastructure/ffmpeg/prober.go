package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"clip-editor/domain/editing"
)

// Prober implements editing.Prober using ffprobe
type Prober struct {
	ffprobePath string
	runner      CommandRunner
}

// ProberOption is a functional option for configuring Prober
type ProberOption func(*Prober)

// WithFFprobePath sets a custom ffprobe executable path
func WithFFprobePath(path string) ProberOption {
	return func(p *Prober) {
		if path != "" {
			p.ffprobePath = path
		}
	}
}

// WithProberCommandRunner sets a custom command runner (for testing)
func WithProberCommandRunner(runner CommandRunner) ProberOption {
	return func(p *Prober) {
		p.runner = runner
	}
}

// NewProber creates a new ffprobe-based prober
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		ffprobePath: "ffprobe",
		runner:      &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Duration implements editing.Prober
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	out, err := p.runner.Output(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	raw := strings.TrimSpace(string(out))
	sec, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe returned unexpected duration %q: %w", raw, err)
	}
	if sec <= 0 {
		return 0, fmt.Errorf("ffprobe reported non-positive duration %q", raw)
	}

	return sec, nil
}

// Ensure Prober implements editing.Prober
var _ editing.Prober = (*Prober)(nil)

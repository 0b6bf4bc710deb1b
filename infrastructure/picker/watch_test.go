package picker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"clip-editor/domain/editing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_PicksSettledVideo(t *testing.T) {
	dir := t.TempDir()
	w := NewWatch(dir, WithSettle(50*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		path string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		p, err := w.PickVideo(ctx)
		done <- result{p, err}
	}()

	// give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drop.mov"), []byte("x"), 0644))

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, filepath.Join(dir, "drop.mov"), res.path)
}

func TestWatch_CancelledContext(t *testing.T) {
	w := NewWatch(t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := w.PickVideo(ctx)
	assert.ErrorIs(t, err, editing.ErrImportCancelled)
}

func TestWatch_MissingDirectory(t *testing.T) {
	w := NewWatch(filepath.Join(t.TempDir(), "missing"))

	_, err := w.PickVideo(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, editing.ErrImportCancelled)
}

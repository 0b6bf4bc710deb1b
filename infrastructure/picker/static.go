package picker

import (
	"context"

	"clip-editor/domain/editing"
)

// Static is a media source that always picks the same path, for
// non-interactive use where the clip is named on the command line
type Static string

// PickVideo implements editing.MediaSource
func (s Static) PickVideo(ctx context.Context) (string, error) {
	if s == "" || ctx.Err() != nil {
		return "", editing.ErrImportCancelled
	}
	return string(s), nil
}

// Ensure Static implements editing.MediaSource
var _ editing.MediaSource = Static("")

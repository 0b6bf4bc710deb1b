package editing

import (
	"errors"
	"fmt"

	"clip-editor/domain/filter"
	"clip-editor/domain/video"
)

var (
	// ErrImportCancelled is returned when the user dismisses the picker; callers treat it as a no-op
	ErrImportCancelled = errors.New("import cancelled")
	ErrNoSource        = errors.New("no clip imported")
	ErrExportInFlight  = errors.New("an export is already in progress")
	ErrSessionClosed   = errors.New("edit session closed")

	ErrUnknownFilter    = filter.ErrUnknownFilter
	ErrInvalidTrimRange = video.ErrInvalidRange
)

// FilterBuildError reports that a preview graph could not be attached
type FilterBuildError struct {
	Filter filter.ID
	Err    error
}

func (e *FilterBuildError) Error() string {
	return fmt.Sprintf("preview for filter %q failed: %v", string(e.Filter), e.Err)
}

func (e *FilterBuildError) Unwrap() error {
	return e.Err
}

// ExportError carries the reason reported by the engine for a failed export
type ExportError struct {
	Output string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Output, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Package editing defines the edit session model, its lifecycle states and
// the ports the session controller drives: media source, playback surface,
// filter/export engine and duration prober.
package editing

import (
	"fmt"

	"clip-editor/domain/filter"
	"clip-editor/domain/video"
)

// ExportPhase is the lifecycle position of the current export attempt
type ExportPhase int

const (
	ExportIdle ExportPhase = iota
	ExportRunning
	ExportCompleted
	ExportFailed
)

func (p ExportPhase) String() string {
	switch p {
	case ExportIdle:
		return "idle"
	case ExportRunning:
		return "exporting"
	case ExportCompleted:
		return "completed"
	case ExportFailed:
		return "failed"
	default:
		return fmt.Sprintf("ExportPhase(%d)", int(p))
	}
}

// ExportStatus is idle, exporting, completed(Output) or failed(Reason)
type ExportStatus struct {
	Phase  ExportPhase
	Output string // set when completed
	Reason error  // set when failed
}

// Terminal returns true once the attempt has completed or failed
func (s ExportStatus) Terminal() bool {
	return s.Phase == ExportCompleted || s.Phase == ExportFailed
}

func (s ExportStatus) String() string {
	switch s.Phase {
	case ExportCompleted:
		return fmt.Sprintf("completed(%s)", s.Output)
	case ExportFailed:
		return fmt.Sprintf("failed(%v)", s.Reason)
	default:
		return s.Phase.String()
	}
}

// State is the controller state derived from the session fields
type State string

const (
	StateEmpty        State = "empty"
	StateLoaded       State = "loaded"
	StatePreviewing   State = "previewing"
	StateExporting    State = "exporting"
	StateExported     State = "exported"
	StateExportFailed State = "export_failed"
)

// EditSession is the state of one editing screen. It is created empty,
// populated by import, mutated by filter and trim selection and read by export.
type EditSession struct {
	Source video.ClipLocation
	Filter filter.ID
	Trim   video.TrimRange
	Export ExportStatus

	// Previewing is true while a filtered preview graph is attached to the surface
	Previewing bool
}

// HasSource returns true once a clip has been imported
func (s EditSession) HasSource() bool {
	return !s.Source.IsZero()
}

// State derives the lifecycle state
func (s EditSession) State() State {
	switch s.Export.Phase {
	case ExportRunning:
		return StateExporting
	case ExportCompleted:
		return StateExported
	case ExportFailed:
		return StateExportFailed
	}
	if !s.HasSource() {
		return StateEmpty
	}
	if s.Previewing {
		return StatePreviewing
	}
	return StateLoaded
}

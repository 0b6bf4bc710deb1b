package video

import (
	"fmt"
	"path/filepath"
	"strings"

	"clip-editor/domain/filter"
)

// Preset selects how the export engine encodes the output
type Preset string

const (
	// PresetHighest re-encodes at the best quality the engine offers
	PresetHighest Preset = "highest"
	// PresetMedium re-encodes at a balanced quality
	PresetMedium Preset = "medium"
	// PresetPassthrough copies streams without re-encoding; only valid without a filter
	PresetPassthrough Preset = "passthrough"
)

// DefaultPreset matches the quality the editor always exported with
const DefaultPreset = PresetHighest

// DefaultContainer is the output container extension
const DefaultContainer = "mov"

// ParsePreset validates a preset name, falling back to DefaultPreset when empty
func ParsePreset(s string) (Preset, error) {
	switch p := Preset(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DefaultPreset, nil
	case PresetHighest, PresetMedium, PresetPassthrough:
		return p, nil
	default:
		return "", fmt.Errorf("unknown export preset %q: expected highest, medium or passthrough", s)
	}
}

// ExportRequest is a read-only snapshot of an edit session handed to the export engine
type ExportRequest struct {
	Source    ClipLocation
	Filter    filter.Filter // zero value means no filter
	Range     TrimRange
	Preset    Preset
	Container string
}

// Validate checks that the export request is complete
func (r *ExportRequest) Validate() error {
	if r.Source.Path == "" {
		return fmt.Errorf("source path is required")
	}
	if err := r.Range.Validate(); err != nil {
		return err
	}
	if r.Source.Duration > 0 && float64(r.Range.End) > r.Source.Duration {
		return fmt.Errorf("%w: end time %s is past the clip duration", ErrInvalidRange, r.Range.End)
	}
	if r.Container == "" {
		return fmt.Errorf("output container is required")
	}
	return nil
}

// HasFilter returns true if a filter should be applied
func (r *ExportRequest) HasFilter() bool {
	return r.Filter.ID != filter.None
}

// EffectivePreset resolves passthrough to a re-encoding preset when a filter is set
func (r *ExportRequest) EffectivePreset() Preset {
	if r.Preset == PresetPassthrough && r.HasFilter() {
		return PresetMedium
	}
	if r.Preset == "" {
		return DefaultPreset
	}
	return r.Preset
}

// OutputFilename returns <stem>_<filter|original>_<id>.<container>
func (r *ExportRequest) OutputFilename(id string) string {
	label := "original"
	if r.HasFilter() {
		label = string(r.Filter.ID)
	}
	return fmt.Sprintf("%s_%s_%s.%s", r.Source.Stem(), label, id, r.Container)
}

// OutputPath returns the full output path given an output directory
func (r *ExportRequest) OutputPath(outputDir, id string) string {
	return filepath.Join(outputDir, r.OutputFilename(id))
}

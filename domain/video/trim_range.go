package video

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRange is returned when a trim range does not satisfy start < end
var ErrInvalidRange = errors.New("invalid trim range")

// TrimRange is the half-open interval [Start, End) of a clip, in seconds
type TrimRange struct {
	Start Timestamp
	End   Timestamp
}

// FullRange returns the range covering a whole clip of the given duration
func FullRange(duration float64) TrimRange {
	return TrimRange{Start: 0, End: Timestamp(duration)}
}

// NewTrimRange clamps start and end into [0, duration] and validates the result.
// Inverted or empty ranges are rejected, never swapped.
func NewTrimRange(start, end, duration float64) (TrimRange, error) {
	if math.IsNaN(start) || math.IsNaN(end) {
		return TrimRange{}, fmt.Errorf("%w: start and end must be numbers", ErrInvalidRange)
	}
	r := TrimRange{
		Start: Timestamp(clamp(start, 0, duration)),
		End:   Timestamp(clamp(end, 0, duration)),
	}
	if err := r.Validate(); err != nil {
		return TrimRange{}, err
	}
	return r, nil
}

// Validate checks that start is before end
func (r TrimRange) Validate() error {
	if r.Start < 0 {
		return fmt.Errorf("%w: start %s is negative", ErrInvalidRange, r.Start)
	}
	if r.End <= r.Start {
		return fmt.Errorf("%w: end time %s must be after start time %s", ErrInvalidRange, r.End, r.Start)
	}
	return nil
}

// Length returns End-Start in seconds
func (r TrimRange) Length() float64 {
	return float64(r.End - r.Start)
}

// IsFull reports whether the range spans an entire clip of the given duration
func (r TrimRange) IsFull(duration float64) bool {
	return r.Start == 0 && float64(r.End) >= duration
}

func (r TrimRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start, r.End)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

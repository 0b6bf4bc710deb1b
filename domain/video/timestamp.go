package video

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Timestamp is a position in a clip, in seconds
type Timestamp float64

// clockRegex matches HH:MM:SS with optional fractional seconds
var clockRegex = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})(\.\d{1,3})?$`)

// secondsRegex matches a plain, non-negative number of seconds
var secondsRegex = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ParseTimestamp parses either HH:MM:SS[.mmm] or a plain seconds value such as "12.5"
func ParseTimestamp(s string) (Timestamp, error) {
	if secondsRegex.MatchString(s) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		return Timestamp(v), nil
	}

	matches := clockRegex.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid timestamp format %q: expected HH:MM:SS[.mmm] or seconds", s)
	}

	hours, _ := strconv.Atoi(matches[1])
	minutes, _ := strconv.Atoi(matches[2])
	seconds, _ := strconv.Atoi(matches[3])

	if minutes > 59 {
		return 0, fmt.Errorf("invalid timestamp %q: minutes must be 0-59", s)
	}
	if seconds > 59 {
		return 0, fmt.Errorf("invalid timestamp %q: seconds must be 0-59", s)
	}

	var frac float64
	if matches[4] != "" {
		frac, _ = strconv.ParseFloat("0"+matches[4], 64)
	}

	return Timestamp(float64(hours*3600+minutes*60+seconds) + frac), nil
}

// Seconds returns the timestamp as a float number of seconds
func (t Timestamp) Seconds() float64 {
	return float64(t)
}

// String returns the timestamp in HH:MM:SS.mmm format, the form ffmpeg accepts for -ss/-t
func (t Timestamp) String() string {
	ms := int64(math.Round(float64(t) * 1000))
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	m := (ms / 60000) % 60
	s := (ms / 1000) % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}

package video

import (
	"strings"
	"testing"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Timestamp
		wantErr bool
		errMsg  string
	}{
		{
			name:  "clock format",
			input: "01:30:45",
			want:  Timestamp(5445),
		},
		{
			name:  "clock with milliseconds",
			input: "00:00:02.500",
			want:  Timestamp(2.5),
		},
		{
			name:  "all zeros",
			input: "00:00:00",
			want:  0,
		},
		{
			name:  "plain seconds",
			input: "8",
			want:  8,
		},
		{
			name:  "fractional seconds",
			input: "12.25",
			want:  12.25,
		},
		{
			name:    "missing leading zero in hours",
			input:   "1:30:45",
			wantErr: true,
			errMsg:  "invalid timestamp format",
		},
		{
			name:    "invalid minutes",
			input:   "00:60:00",
			wantErr: true,
			errMsg:  "minutes must be 0-59",
		},
		{
			name:    "invalid seconds",
			input:   "00:00:60",
			wantErr: true,
			errMsg:  "seconds must be 0-59",
		},
		{
			name:    "negative seconds",
			input:   "-3",
			wantErr: true,
			errMsg:  "invalid timestamp format",
		},
		{
			name:    "empty string",
			input:   "",
			wantErr: true,
			errMsg:  "invalid timestamp format",
		},
		{
			name:    "letters",
			input:   "ab:cd:ef",
			wantErr: true,
			errMsg:  "invalid timestamp format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseTimestamp(%q) expected error, got nil", tt.input)
					return
				}
				if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ParseTimestamp(%q) error = %v, want error containing %q", tt.input, err, tt.errMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseTimestamp(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got != tt.want {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, float64(got), float64(tt.want))
			}
		})
	}
}

func TestTimestamp_String(t *testing.T) {
	tests := []struct {
		ts   Timestamp
		want string
	}{
		{0, "00:00:00.000"},
		{2, "00:00:02.000"},
		{6.5, "00:00:06.500"},
		{5445, "01:30:45.000"},
		{59.9996, "00:01:00.000"},
		{-1, "00:00:00.000"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.ts.String(); got != tt.want {
				t.Errorf("Timestamp(%v).String() = %q, want %q", float64(tt.ts), got, tt.want)
			}
		})
	}
}

func TestTimestamp_RoundTrip(t *testing.T) {
	for _, s := range []string{"00:00:00.000", "00:05:30.250", "01:45:00.000"} {
		ts, err := ParseTimestamp(s)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) unexpected error: %v", s, err)
		}
		if ts.String() != s {
			t.Errorf("round trip of %q gave %q", s, ts.String())
		}
	}
}

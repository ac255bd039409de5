package timeutil

import (
	"testing"
	"time"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		in    string
		want  time.Duration
		label string
	}{
		{"", 7 * 24 * time.Hour, "1w"},
		{"3d", 72 * time.Hour, "3d"},
		{"1w2d6h30m", (7*24+2*24+6)*time.Hour + 30*time.Minute, "1w2d6h30m"},
		{"10 days", 240 * time.Hour, "1w3d"},
		{"1mo", 30 * 24 * time.Hour, "1mo"},
		{"48h", 48 * time.Hour, "2d"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, err := ParseWindow(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w.Duration != tt.want || w.Label != tt.label {
				t.Fatalf("got %v %q, want %v %q", w.Duration, w.Label, tt.want, tt.label)
			}
		})
	}
}

func TestParseWindowInvalid(t *testing.T) {
	for _, in := range []string{"noop", "3 fortnights", "0d", "5"} {
		if _, err := ParseWindow(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestWindowRange(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	since, until := Window{Duration: 24 * time.Hour}.Range(now)
	if !until.Equal(now) || !since.Equal(now.Add(-24*time.Hour)) {
		t.Fatalf("range = %v..%v", since, until)
	}
}

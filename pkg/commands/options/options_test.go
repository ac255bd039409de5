package options

import (
	"bytes"
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	now := time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"today", "2026-10-16 00:00"},
		{"Tomorrow", "2026-10-17 00:00"},
		{"yesterday", "2026-10-15 00:00"},
		{"2026-10-20", "2026-10-20 00:00"},
		{"2026-10-20 09:30", "2026-10-20 09:30"},
		{"10/20", "2026-10-20 00:00"},
		{"10/16", "2026-10-16 00:00"},
		{"1/3", "2027-01-03 00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDay(tt.in, now, time.UTC)
			if err != nil {
				t.Fatal(err)
			}
			s := ""
			if got != nil {
				s = got.Format("2006-01-02 15:04")
			}
			if s != tt.want {
				t.Fatalf("got %q, want %q", s, tt.want)
			}
		})
	}
	if _, err := ParseDay("someday", now, time.UTC); err == nil {
		t.Fatal("expected error")
	}
}

func TestPlacementValidate(t *testing.T) {
	tests := []struct {
		name string
		o    PlacementOptions
		ok   bool
	}{
		{"none", PlacementOptions{}, true},
		{"after", PlacementOptions{After: "a"}, true},
		{"first under parent", PlacementOptions{First: true, Parent: "p"}, true},
		{"after and before", PlacementOptions{After: "a", Before: "b"}, false},
		{"after and first", PlacementOptions{After: "a", First: true}, false},
		{"parent and anchor", PlacementOptions{Parent: "p", Before: "b"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.o.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v", err)
			}
		})
	}
}

func TestOutputPrint(t *testing.T) {
	var buf bytes.Buffer
	called := false
	o := &OutputOptions{Output: "json"}
	if err := o.Print(&buf, map[string]int{"n": 1}, func() { called = true }); err != nil {
		t.Fatal(err)
	}
	if called || buf.String() != "{\n  \"n\": 1\n}\n" {
		t.Fatalf("json = %q called=%v", buf.String(), called)
	}
	o.Output = "text"
	if err := o.Print(&buf, nil, func() { called = true }); err != nil || !called {
		t.Fatalf("text: %v called=%v", err, called)
	}
	o.Output = "xml"
	if err := o.Print(&buf, nil, func() {}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

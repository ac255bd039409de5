package printers

import (
	"bytes"
	"testing"

	"tableflip.dev/planner/pkg/model"
)

func TestEncode(t *testing.T) {
	label := &model.Label{Meta: model.Meta{ID: "l1", Order: 2}, Name: "home"}
	tests := []struct {
		format string
		want   string
	}{{
		format: FormatYAML,
		want:   "id: l1\nname: home\norder: 2\nowner: \"\"\nupdated: \"\"\n",
	}}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, tt.format, label); err != nil {
				t.Fatal(err)
			}
			if got := buf.String(); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	if err := Encode(&bytes.Buffer{}, "xml", struct{}{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

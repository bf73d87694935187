package cli

import (
	"reflect"
	"testing"
)

func TestRenderBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		want   string
	}{
		{"derive from input", "", "data/tree.json", "data/tree"},
		{"no input at all", "", "", "tree"},
		{"output with format ext", "out.svg", "tree.json", "out"},
		{"output with png ext", "maps/out.png", "tree.json", "maps/out"},
		{"output without ext", "out", "tree.json", "out"},
		{"unknown ext kept", "out.bak", "tree.json", "out.bak"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderBasePath(tt.output, tt.input); got != tt.want {
				t.Errorf("renderBasePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	if got := parseFormats(""); !reflect.DeepEqual(got, []string{"svg"}) {
		t.Errorf("empty = %v", got)
	}
	if got := parseFormats("svg,png,json"); !reflect.DeepEqual(got, []string{"svg", "png", "json"}) {
		t.Errorf("list = %v", got)
	}
}

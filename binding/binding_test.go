package binding

import (
	"testing"

	"github.com/ByLCY/asciicam/halftone"
)

func TestExpand(t *testing.T) {
	params, err := Vars(halftone.Params{DotSize: 6, Spacing: 4, Angle: 22.5, Variant: halftone.Legacy})
	if err != nil {
		t.Fatalf("Vars: %v", err)
	}
	data := map[string]any{
		"mode":       "halftone",
		"timestamp":  "20240501-120000",
		"preset":     "classic/newspaper",
		"parameters": params,
		"sizes":      []any{10.0, 20.0},
	}
	tests := []struct {
		template, want string
	}{
		{"out/${mode}_${timestamp}.png", "out/halftone_20240501-120000.png"},
		{"out/${ parameters.variant }-${parameters.screen_angle}.png", "out/legacy-22.5.png"},
		{"out/${parameters.dot_resolution}x${sizes[1]}.png", "out/4x20.png"},
		{"out/${preset}.png", "out/classic_newspaper.png"},
		{"plain.png", "plain.png"},
	}
	for _, tc := range tests {
		got, err := Expand(tc.template, data)
		if err != nil {
			t.Fatalf("Expand(%q): %v", tc.template, err)
		}
		if got != tc.want {
			t.Fatalf("Expand(%q) = %q, want %q", tc.template, got, tc.want)
		}
	}
}

func TestExpandErrors(t *testing.T) {
	data := map[string]any{"mode": "ascii", "list": []any{"a"}}
	for _, tpl := range []string{"${missing}.png", "${}.png", "${list[3]}", "${mode.inner}"} {
		if _, err := Expand(tpl, data); err == nil {
			t.Fatalf("expected error for %q", tpl)
		}
	}
}

func TestExpandSanitizesTraversal(t *testing.T) {
	got, err := Expand("out/${name}.png", map[string]string{"name": ".."})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if got != "out/_.png" {
		t.Fatalf("got %q", got)
	}
}

package halftone

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ByLCY/asciicam/layout"
)

func uniform(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestRadiusMapping(t *testing.T) {
	tests := []struct {
		v      uint8
		invert bool
		want   float64
	}{
		{0, false, 4}, {255, false, 0}, {0, true, 0}, {255, true, 4},
	}
	for _, tc := range tests {
		if got := Radius(tc.v, 8, tc.invert); got != tc.want {
			t.Fatalf("Radius(%d, 8, %t) = %g, want %g", tc.v, tc.invert, got, tc.want)
		}
	}
	if got := Radius(51, 10, false); math.Abs(got-4) > 1e-12 {
		t.Fatalf("Radius(51) = %g, want 4", got)
	}
}

func TestWhiteSourceHasNoDots(t *testing.T) {
	for _, v := range []Variant{Legacy, Traditional} {
		dots, err := Screen(uniform(100, 100, 255), Params{DotSize: 8, Spacing: 5, Variant: v})
		if err != nil {
			t.Fatalf("%s: Screen: %v", v, err)
		}
		if len(dots) != 0 {
			t.Fatalf("%s: white source produced %d dots", v, len(dots))
		}
	}
}

func TestBlackSourceFullGrid(t *testing.T) {
	for _, v := range []Variant{Legacy, Traditional} {
		dots, err := Screen(uniform(100, 100, 0), Params{DotSize: 8, Spacing: 10, Variant: v})
		if err != nil {
			t.Fatalf("%s: Screen: %v", v, err)
		}
		if len(dots) != 100 {
			t.Fatalf("%s: got %d dots, want 100", v, len(dots))
		}
		for i, d := range dots {
			wantX, wantY := float64(i%10*10), float64(i/10*10)
			if d.X != wantX || d.Y != wantY || d.R != 4 {
				t.Fatalf("%s: dot %d = %+v, want (%g,%g) r=4", v, i, d, wantX, wantY)
			}
		}
	}
}

func TestUniformGrayConstantRadius(t *testing.T) {
	dots, err := Screen(uniform(40, 30, 100), Params{DotSize: 8, Spacing: 1, Angle: 30, Variant: Legacy})
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if len(dots) == 0 {
		t.Fatalf("expected dots for a gray source")
	}
	want := Radius(100, 8, false)
	for _, d := range dots {
		if math.Abs(d.R-want) > 0.5 {
			t.Fatalf("dot %+v radius differs from %g", d, want)
		}
	}
}

func TestLegacyKeepsCentresInside(t *testing.T) {
	const w, h = 100, 100
	dots, err := Screen(uniform(w, h, 0), Params{DotSize: 8, Spacing: 4, Angle: 45, Variant: Legacy})
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	for _, d := range dots {
		if d.X < 0 || d.Y < 0 || d.X >= w || d.Y >= h {
			t.Fatalf("legacy dot outside canvas: %+v", d)
		}
	}
}

func TestTraditionalAllowsBorderDots(t *testing.T) {
	const w, h = 100, 100
	src := uniform(w, h, 0)
	legacy, err := Screen(src, Params{DotSize: 8, Spacing: 4, Angle: 45, Variant: Legacy})
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	trad, err := Screen(src, Params{DotSize: 8, Spacing: 4, Angle: 45, Variant: Traditional})
	if err != nil {
		t.Fatalf("Screen: %v", err)
	}
	if len(trad) <= len(legacy) {
		t.Fatalf("traditional should keep more dots than legacy: %d vs %d", len(trad), len(legacy))
	}
	outside := 0
	for _, d := range trad {
		if d.X < -8 || d.Y < -8 || d.X > w+8 || d.Y > h+8 {
			t.Fatalf("traditional dot beyond margin: %+v", d)
		}
		if d.X < 0 || d.Y < 0 || d.X >= w || d.Y >= h {
			outside++
		}
	}
	if outside == 0 {
		t.Fatalf("expected partial border dots in the traditional screen")
	}
}

func TestAcceptsRules(t *testing.T) {
	tests := []struct {
		v      Variant
		gx, gy int
		want   bool
	}{
		{Legacy, 0, 0, true},
		{Legacy, 99, 99, true},
		{Legacy, 100, 50, false},
		{Legacy, -1, 50, false},
		{Traditional, -8, 50, true},
		{Traditional, -9, 50, false},
		{Traditional, 108, 108, true},
		{Traditional, 109, 50, false},
	}
	for _, tc := range tests {
		if got := accepts(tc.v, tc.gx, tc.gy, 100, 100, 8); got != tc.want {
			t.Fatalf("accepts(%s, %d, %d) = %t, want %t", tc.v, tc.gx, tc.gy, got, tc.want)
		}
	}
}

func TestScreenDeterministic(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			src.SetGray(x, y, color.Gray{Y: uint8((x*7 + y*13) % 256)})
		}
	}
	p := Params{DotSize: 6, Spacing: 3, Angle: 22.5, Variant: Traditional}
	a, err := Screen(src, p)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Screen(src, p)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("screens differ:\n%s", diff)
	}
}

func TestAngleNormalized(t *testing.T) {
	src := uniform(50, 40, 60)
	base, err := Screen(src, Params{DotSize: 8, Spacing: 5, Angle: 30, Variant: Legacy})
	if err != nil {
		t.Fatal(err)
	}
	wrapped, err := Screen(src, Params{DotSize: 8, Spacing: 5, Angle: 390, Variant: Legacy})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(base, wrapped, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Fatalf("390° should equal 30°:\n%s", diff)
	}
}

func TestValidateRejects(t *testing.T) {
	bad := []Params{
		{DotSize: 8, Spacing: 0},
		{DotSize: 8, Spacing: -3},
		{DotSize: 0, Spacing: 5},
		{DotSize: math.NaN(), Spacing: 5},
		{DotSize: 8, Spacing: 5, Angle: math.Inf(1)},
		{DotSize: 8, Spacing: 5, Variant: Variant(7)},
	}
	for _, p := range bad {
		if _, err := Screen(uniform(10, 10, 0), p); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("Screen(%+v) = %v, want ErrInvalidParameter", p, err)
		}
	}
}

func TestDefaultSpacing(t *testing.T) {
	if got := DefaultSpacing(Traditional, 10); got != 10 {
		t.Fatalf("traditional default spacing = %d, want 10", got)
	}
	if got := DefaultSpacing(Traditional, 0.4); got != 1 {
		t.Fatalf("traditional default spacing must be ≥1, got %d", got)
	}
	if got := DefaultSpacing(Legacy, 10); got != 5 {
		t.Fatalf("legacy default spacing = %d, want 5", got)
	}
}

func TestParseVariant(t *testing.T) {
	for in, want := range map[string]Variant{"legacy": Legacy, "Traditional": Traditional, "": Traditional, "classic": Legacy} {
		got, err := ParseVariant(in)
		if err != nil || got != want {
			t.Fatalf("ParseVariant(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseVariant("stochastic"); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter, got %v", err)
	}
	var v Variant
	if err := v.UnmarshalText([]byte("legacy")); err != nil || v != Legacy {
		t.Fatalf("UnmarshalText: %v %v", v, err)
	}
	if b, _ := Traditional.MarshalText(); string(b) != "traditional" {
		t.Fatalf("MarshalText = %q", b)
	}
}

func TestBuildPage(t *testing.T) {
	page, err := Build(uniform(30, 20, 0), Params{DotSize: 4, Spacing: 10, Variant: Legacy})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if page.Width != 30 || page.Height != 20 || page.Background != layout.White {
		t.Fatalf("unexpected page %dx%d bg=%+v", page.Width, page.Height, page.Background)
	}
	want := []layout.Circle{
		{CX: 0, CY: 0, R: 2, Fill: layout.Black}, {CX: 10, CY: 0, R: 2, Fill: layout.Black}, {CX: 20, CY: 0, R: 2, Fill: layout.Black},
		{CX: 0, CY: 10, R: 2, Fill: layout.Black}, {CX: 10, CY: 10, R: 2, Fill: layout.Black}, {CX: 20, CY: 10, R: 2, Fill: layout.Black},
	}
	if diff := cmp.Diff(want, page.Circles); diff != "" {
		t.Fatalf("circles mismatch (-want +got):\n%s", diff)
	}
}

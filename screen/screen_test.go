package screen

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"
)

func TestRotateRoundTrip(t *testing.T) {
	pivot := vec.Vec2{X: 320, Y: 240}
	points := []vec.Vec2{{X: 0, Y: 0}, {X: 640, Y: 480}, {X: -13.5, Y: 77.25}, {X: 320, Y: 240}, {X: 1e4, Y: -3e3}}
	for deg := -720.0; deg <= 720; deg += 7.5 {
		rad := deg * math.Pi / 180
		for _, p := range points {
			back := RotateAbout(RotateAbout(p, pivot, rad), pivot, -rad)
			if math.Abs(back.X-p.X) > 1e-6 || math.Abs(back.Y-p.Y) > 1e-6 {
				t.Fatalf("旋转往返误差过大: deg=%g p=%v back=%v", deg, p, back)
			}
		}
	}
}

func TestRotateAboutMatchesFormula(t *testing.T) {
	pivot := vec.Vec2{X: 50, Y: 25}
	p := vec.Vec2{X: 90, Y: 10}
	rad := 30 * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	wantX := (p.X-pivot.X)*c - (p.Y-pivot.Y)*s + pivot.X
	wantY := (p.X-pivot.X)*s + (p.Y-pivot.Y)*c + pivot.Y
	got := RotateAbout(p, pivot, rad)
	if math.Abs(got.X-wantX) > 1e-9 || math.Abs(got.Y-wantY) > 1e-9 {
		t.Fatalf("got %v, want (%g, %g)", got, wantX, wantY)
	}
}

func TestFrameRotateUnrotate(t *testing.T) {
	f := NewFrame(400, 300, 33)
	for _, p := range []vec.Vec2{{X: 0, Y: 0}, {X: 399, Y: 299}, {X: 123.4, Y: 56.7}} {
		back := f.Unrotate(f.Rotate(p))
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Fatalf("frame round trip: p=%v back=%v", p, back)
		}
	}
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name  string
		w, h  int
		angle float64
		want  Bounds
	}{
		{"zero", 100, 100, 0, Bounds{0, 0, 100, 100}},
		{"full turn", 100, 60, 360, Bounds{0, 0, 100, 60}},
		{"quarter", 100, 60, 90, Bounds{20, -20, 80, 80}},
		{"half", 100, 60, 180, Bounds{0, 0, 100, 60}},
		// half diagonal of a 100x100 square is 70.71
		{"diagonal", 100, 100, 45, Bounds{-21, -21, 121, 121}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewFrame(tc.w, tc.h, tc.angle).Bounds()
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("bounds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBoundsCoverImage(t *testing.T) {
	for deg := 0.0; deg < 360; deg += 11 {
		f := NewFrame(160, 90, deg)
		b := f.Bounds()
		for _, c := range []vec.Vec2{{X: 0, Y: 0}, {X: 160, Y: 0}, {X: 160, Y: 90}, {X: 0, Y: 90}} {
			r := f.Rotate(c)
			if r.X < float64(b.MinX) || r.X > float64(b.MaxX) || r.Y < float64(b.MinY) || r.Y > float64(b.MaxY) {
				t.Fatalf("deg=%g: corner %v rotated to %v outside %+v", deg, c, r, b)
			}
		}
	}
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0}, {45, 45}, {360, 0}, {405, 45}, {-90, 270}, {-720, 0}, {1080.5, 0.5},
	}
	for _, tc := range tests {
		got, err := NormalizeAngle(tc.in)
		if err != nil {
			t.Fatalf("NormalizeAngle(%g) error: %v", tc.in, err)
		}
		if math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("NormalizeAngle(%g) = %g, want %g", tc.in, got, tc.want)
		}
	}
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := NormalizeAngle(bad); err == nil {
			t.Fatalf("NormalizeAngle(%g) expected error", bad)
		}
	}
}

func TestGridRowMajor(t *testing.T) {
	f := NewFrame(20, 10, 0)
	var got [][2]int
	for p := range f.Grid(5) {
		got = append(got, [2]int{p.X, p.Y})
		if p.Source.X != float64(p.X) || p.Source.Y != float64(p.Y) {
			t.Fatalf("0° grid should sample in place: %+v", p)
		}
	}
	want := [][2]int{{0, 0}, {5, 0}, {10, 0}, {15, 0}, {0, 5}, {5, 5}, {10, 5}, {15, 5}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("grid mismatch (-want +got):\n%s", diff)
	}
}

func TestGridStopsEarly(t *testing.T) {
	n := 0
	for range NewFrame(100, 100, 30).Grid(1) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("expected early stop after 3 points, got %d", n)
	}
}

func TestClampAndContains(t *testing.T) {
	f := NewFrame(10, 5, 0)
	if f.Contains(vec.Vec2{X: 10, Y: 0}) || f.Contains(vec.Vec2{X: -0.001, Y: 1}) {
		t.Fatalf("Contains accepted an out of bounds point")
	}
	if !f.Contains(vec.Vec2{X: 9.999, Y: 4.999}) {
		t.Fatalf("Contains rejected an in-bounds point")
	}
	x, y := f.Clamp(vec.Vec2{X: 9.999, Y: 4.999})
	if x != 9 || y != 4 {
		t.Fatalf("Clamp = (%d,%d), want (9,4)", x, y)
	}
}

func TestMapRangeEndpoints(t *testing.T) {
	pairs := [][2]float64{{0, 4}, {4, 0}, {0.1, 0.3}, {-7.25, 19.5}, {1e-3, 1e3}, {3, 3}}
	for _, p := range pairs {
		b0, b1 := p[0], p[1]
		if got := MapRange(0, 0, 255, b0, b1); got != b0 {
			t.Fatalf("MapRange(0) = %v, want exactly %v", got, b0)
		}
		if got := MapRange(255, 0, 255, b0, b1); got != b1 {
			t.Fatalf("MapRange(255) = %v, want exactly %v", got, b1)
		}
	}
	if got := MapRange(127.5, 0, 255, 0, 4); math.Abs(got-2) > 1e-12 {
		t.Fatalf("midpoint = %v, want 2", got)
	}
}

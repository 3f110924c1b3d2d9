// Package screen computes the rotated sampling lattice shared by the
// halftone renderers.
//
// A Frame rotates the image plane about the image centre. Grid points are
// enumerated in the rotated frame, and each one is mapped back to source
// image coordinates for brightness sampling.
package screen

import (
	"fmt"
	"iter"
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

// NormalizeAngle folds an angle in degrees into [0, 360).
// NaN and infinite angles cannot be folded and are rejected.
func NormalizeAngle(deg float64) (float64, error) {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0, fmt.Errorf("网屏角度无效: %v", deg)
	}
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a == 360 { // -tiny + 360 rounds up
		a = 0
	}
	return a, nil
}

// pivotRotation returns the affine map rotating by rad about pivot.
func pivotRotation(pivot vec.Vec2, rad float64) matrix.Matrix {
	return matrix.Translate(-pivot.X, -pivot.Y).
		Mul(matrix.Rotate(rad)).
		Mul(matrix.Translate(pivot.X, pivot.Y))
}

// RotateAbout rotates p by rad radians about pivot:
//
//	x' = (x-cx)cosθ - (y-cy)sinθ + cx
//	y' = (x-cx)sinθ + (y-cy)cosθ + cy
func RotateAbout(p, pivot vec.Vec2, rad float64) vec.Vec2 {
	return apply(pivotRotation(pivot, rad), p)
}

func apply(m matrix.Matrix, p vec.Vec2) vec.Vec2 {
	x, y := m.Apply(p.X, p.Y)
	return vec.Vec2{X: x, Y: y}
}

// Bounds is an integer rectangle [MinX,MaxX)×[MinY,MaxY) in the rotated frame.
type Bounds struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Dx returns the width of b.
func (b Bounds) Dx() int { return b.MaxX - b.MinX }

// Dy returns the height of b.
func (b Bounds) Dy() int { return b.MaxY - b.MinY }

// Frame describes a W×H image plane rotated by Angle degrees about its centre.
type Frame struct {
	Width, Height int
	Angle         float64 // degrees, normalized to [0, 360)

	center  vec.Vec2
	forward matrix.Matrix
	inverse matrix.Matrix
}

// NewFrame builds the frame for a w×h image and a screen angle in degrees.
// The angle must already be finite; it is folded into [0, 360).
func NewFrame(w, h int, angleDeg float64) Frame {
	angle, err := NormalizeAngle(angleDeg)
	if err != nil {
		panic(err)
	}
	center := vec.Vec2{X: float64(w) / 2, Y: float64(h) / 2}
	rad := angle * math.Pi / 180
	return Frame{
		Width:   w,
		Height:  h,
		Angle:   angle,
		center:  center,
		forward: pivotRotation(center, rad),
		inverse: pivotRotation(center, -rad),
	}
}

// Center returns the rotation pivot (W/2, H/2).
func (f Frame) Center() vec.Vec2 { return f.center }

// Rotate maps an image point into the rotated frame.
func (f Frame) Rotate(p vec.Vec2) vec.Vec2 { return apply(f.forward, p) }

// Unrotate maps a rotated-frame point back into image coordinates.
func (f Frame) Unrotate(p vec.Vec2) vec.Vec2 { return apply(f.inverse, p) }

// Bounds returns the smallest integer box in the rotated frame covering the
// whole unrotated image rectangle.
func (f Frame) Bounds() Bounds {
	w, h := float64(f.Width), float64(f.Height)
	corners := [4]vec.Vec2{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		r := f.Rotate(c)
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.X)
		maxY = math.Max(maxY, r.Y)
	}
	return Bounds{
		MinX: int(math.Floor(snap(minX))),
		MinY: int(math.Floor(snap(minY))),
		MaxX: int(math.Ceil(snap(maxX))),
		MaxY: int(math.Ceil(snap(maxY))),
	}
}

// snap removes rotation noise around integers so that an axis-aligned frame
// (0°, 90°, ...) keeps the exact image box.
func snap(v float64) float64 {
	const eps = 1e-9
	if r := math.Round(v); math.Abs(v-r) < eps {
		return r
	}
	return v
}

// Contains reports whether an image-space point lies in [0,W)×[0,H).
func (f Frame) Contains(p vec.Vec2) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < float64(f.Width) && p.Y < float64(f.Height)
}

// Clamp converts an image-space point to the nearest valid pixel index.
func (f Frame) Clamp(p vec.Vec2) (x, y int) {
	x = max(0, min(f.Width-1, int(p.X)))
	y = max(0, min(f.Height-1, int(p.Y)))
	return x, y
}

// GridPoint is one lattice point of the rotated screen.
type GridPoint struct {
	X, Y   int      // position in the rotated frame
	Source vec.Vec2 // the same point mapped back into image space
}

// Grid enumerates the rotated bounding box row by row with the given step.
// Step must be at least 1.
func (f Frame) Grid(step int) iter.Seq[GridPoint] {
	if step < 1 {
		panic(fmt.Sprintf("screen: grid step %d < 1", step))
	}
	b := f.Bounds()
	return func(yield func(GridPoint) bool) {
		for gy := b.MinY; gy < b.MaxY; gy += step {
			for gx := b.MinX; gx < b.MaxX; gx += step {
				src := f.Unrotate(vec.Vec2{X: float64(gx), Y: float64(gy)})
				if !yield(GridPoint{X: gx, Y: gy, Source: src}) {
					return
				}
			}
		}
	}
}

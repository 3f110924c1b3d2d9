// Package halftone turns a grayscale raster into a rotated dot screen.
//
// Both variants sample the source on the same rotated lattice (see package
// screen) and draw each dot at its rotated grid position. They differ only
// in which dot centres are kept near the canvas border.
package halftone

import (
	"fmt"
	"image"

	"github.com/ByLCY/asciicam/layout"
	"github.com/ByLCY/asciicam/screen"
)

// minRadius is the largest radius that is not drawn.
const minRadius = 0.5

// Dot is one filled circle of the screen, in output pixel coordinates.
type Dot struct {
	X, Y float64
	R    float64
}

// Radius maps a brightness value to a dot radius in [0, dotSize/2].
// Dark pixels give large dots unless invert is set.
func Radius(v uint8, dotSize float64, invert bool) float64 {
	if invert {
		return screen.MapRange(float64(v), 0, 255, 0, dotSize/2)
	}
	return screen.MapRange(float64(v), 0, 255, dotSize/2, 0)
}

// accepts reports whether a dot centred at (gx, gy) is kept on a w×h canvas.
func accepts(v Variant, gx, gy, w, h int, dotSize float64) bool {
	x, y := float64(gx), float64(gy)
	switch v {
	case Legacy:
		return gx >= 0 && gy >= 0 && gx < w && gy < h
	default:
		return x >= -dotSize && y >= -dotSize &&
			x <= float64(w)+dotSize && y <= float64(h)+dotSize
	}
}

// Screen computes the dots of the halftone screen for src, row by row in
// the rotated frame. The result is fully determined by src and p.
func Screen(src *image.Gray, p Params) ([]Dot, error) {
	if src == nil {
		panic("halftone: nil source raster")
	}
	p, err := p.Validate()
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, nil
	}

	frame := screen.NewFrame(w, h, p.Angle)
	var dots []Dot
	for pt := range frame.Grid(p.Spacing) {
		if !frame.Contains(pt.Source) {
			continue
		}
		sx, sy := frame.Clamp(pt.Source)
		v := src.GrayAt(b.Min.X+sx, b.Min.Y+sy).Y

		r := Radius(v, p.DotSize, p.Invert)
		if r <= minRadius {
			continue
		}
		if !accepts(p.Variant, pt.X, pt.Y, w, h, p.DotSize) {
			continue
		}
		dots = append(dots, Dot{X: float64(pt.X), Y: float64(pt.Y), R: r})
	}
	return dots, nil
}

// Build lays the screen of src out as a page of the same size as src:
// white background, solid black dots.
func Build(src *image.Gray, p Params) (*layout.Page, error) {
	dots, err := Screen(src, p)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	page := &layout.Page{
		Width:      b.Dx(),
		Height:     b.Dy(),
		Background: layout.White,
		Circles:    make([]layout.Circle, 0, len(dots)),
	}
	for _, d := range dots {
		page.Circles = append(page.Circles, layout.Circle{CX: d.X, CY: d.Y, R: d.R, Fill: layout.Black})
	}
	return page, nil
}

// Describe returns a one-line summary used in log records.
func (p Params) Describe() string {
	return fmt.Sprintf("%s size=%g spacing=%d angle=%g invert=%t", p.Variant, p.DotSize, p.Spacing, p.Angle, p.Invert)
}

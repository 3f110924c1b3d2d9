// Package mosaic renders a grayscale raster as a grid of glyphs.
//
// The source is downsampled to one pixel per character cell, each cell is
// quantized onto a glyph ramp, and the resulting transcript is typeset in a
// fixed-pitch font.
package mosaic

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"unicode"

	"github.com/nfnt/resize"
	"golang.org/x/text/width"

	"github.com/ByLCY/asciicam/layout"
	"github.com/ByLCY/asciicam/raster"
	"github.com/ByLCY/asciicam/screen"
)

// DefaultRamp lists glyphs from lightest to darkest.
const DefaultRamp = " .:-=+*#%@"

// Defaults shared with the convert request layer.
const (
	DefaultCharWidth = 80
	DefaultFontSize  = 8
)

// Margin is the blank border around the typeset glyph grid, in pixels.
const Margin = 10

// cellAspect compensates for glyphs being about twice as tall as wide.
const cellAspect = 0.5

// ErrInvalidParameter is wrapped by every validation failure of Params.
var ErrInvalidParameter = errors.New("mosaic: invalid parameter")

// Params controls one mosaic render.
type Params struct {
	CharWidth int    `json:"char_width"`
	Invert    bool   `json:"invert"`
	Ramp      string `json:"glyph_ramp"`
	FontSize  int    `json:"font_size"` // px per em
}

// Validate checks p and returns a copy with an empty ramp replaced by DefaultRamp.
func (p Params) Validate() (Params, error) {
	if p.CharWidth < 1 {
		return p, fmt.Errorf("%w: char_width 必须 ≥ 1，实际 %d", ErrInvalidParameter, p.CharWidth)
	}
	if p.FontSize < 1 {
		return p, fmt.Errorf("%w: font_size 必须 ≥ 1，实际 %d", ErrInvalidParameter, p.FontSize)
	}
	if p.Ramp == "" {
		p.Ramp = DefaultRamp
	}
	if err := checkRamp(p.Ramp); err != nil {
		return p, err
	}
	return p, nil
}

// checkRamp accepts ramps of at least two printable single-cell glyphs.
func checkRamp(ramp string) error {
	runes := []rune(ramp)
	if len(runes) < 2 {
		return fmt.Errorf("%w: 字符梯度至少需要 2 个字符", ErrInvalidParameter)
	}
	for _, r := range runes {
		if r != ' ' && !unicode.IsGraphic(r) {
			return fmt.Errorf("%w: 字符梯度包含不可打印字符 %U", ErrInvalidParameter, r)
		}
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			return fmt.Errorf("%w: 字符梯度包含全角字符 %q，无法对齐等宽网格", ErrInvalidParameter, r)
		}
	}
	return nil
}

// CharHeight returns the number of glyph rows for a w×h source rendered
// charWidth glyphs wide: round(charWidth · h/w · 0.5), at least 1.
func CharHeight(w, h, charWidth int) int {
	if w <= 0 || h <= 0 {
		return 1
	}
	rows := int(math.Round(float64(charWidth) * (float64(h) / float64(w)) * cellAspect))
	return max(1, rows)
}

// Downsample resamples src to cols×rows with a Lanczos3 filter, so each
// output pixel averages the source area under it.
func Downsample(src *image.Gray, cols, rows int) *image.Gray {
	out := resize.Resize(uint(cols), uint(rows), src, resize.Lanczos3)
	return raster.ToGray(out)
}

// Glyph maps a brightness value onto ramp. Without invert, black selects
// the darkest (last) glyph and white the lightest; invert swaps the ends.
func Glyph(v uint8, ramp []rune, invert bool) rune {
	n := len(ramp)
	idx := int(math.Round(screen.MapRange(float64(v), 0, 255, 0, float64(n-1))))
	idx = max(0, min(n-1, idx))
	if invert {
		return ramp[idx]
	}
	return ramp[n-1-idx]
}

// Transcript is the glyph grid of one render.
type Transcript struct {
	Cols  int      `json:"cols"`
	Rows  int      `json:"rows"`
	Lines []string `json:"lines"`
}

// String joins the rows with newlines, without a trailing newline.
func (t *Transcript) String() string {
	return strings.Join(t.Lines, "\n")
}

// Transcribe converts src into a glyph grid p.CharWidth columns wide.
func Transcribe(src *image.Gray, p Params) (*Transcript, error) {
	if src == nil {
		panic("mosaic: nil source raster")
	}
	p, err := p.Validate()
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: 源图像为空", ErrInvalidParameter)
	}
	cols := p.CharWidth
	rows := CharHeight(b.Dx(), b.Dy(), cols)
	small := Downsample(src, cols, rows)

	ramp := []rune(p.Ramp)
	t := &Transcript{Cols: cols, Rows: rows, Lines: make([]string, 0, rows)}
	var line strings.Builder
	for y := 0; y < rows; y++ {
		line.Reset()
		for x := 0; x < cols; x++ {
			line.WriteRune(Glyph(small.GrayAt(x, y).Y, ramp, p.Invert))
		}
		t.Lines = append(t.Lines, line.String())
	}
	return t, nil
}

// Build typesets t as black glyphs on white, left aligned, one glyph row
// per line, surrounded by Margin pixels.
func Build(t *Transcript, font layout.FontResource, fontSize float64, ts layout.Typesetter) (*layout.Page, error) {
	if t == nil {
		return nil, fmt.Errorf("字符画为空")
	}
	if ts == nil {
		return nil, fmt.Errorf("mosaic: 缺少排版后端 Typesetter")
	}
	m, err := ts.Metrics(font, fontSize)
	if err != nil {
		return nil, fmt.Errorf("读取字体度量失败: %w", err)
	}

	cols := 0
	for _, l := range t.Lines {
		cols = max(cols, len([]rune(l)))
	}
	cols = max(cols, 1)

	lines := make([]layout.TextLine, len(t.Lines))
	for i, l := range t.Lines {
		lines[i] = layout.TextLine{
			Content: l,
			Width:   float64(len([]rune(l))) * m.Advance,
			Height:  m.LineHeight,
		}
	}
	return &layout.Page{
		Width:      layout.Ceil(float64(cols)*m.Advance) + 2*Margin,
		Height:     layout.Ceil(float64(len(t.Lines))*m.LineHeight) + 2*Margin,
		Background: layout.White,
		Texts: []layout.TextBox{{
			X:          Margin,
			Y:          Margin,
			Font:       font,
			FontSize:   fontSize,
			LineHeight: m.LineHeight,
			Advance:    m.Advance,
			Color:      layout.Black,
			Lines:      lines,
		}},
	}, nil
}

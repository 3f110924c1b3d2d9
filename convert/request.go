package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ByLCY/asciicam/halftone"
	"github.com/ByLCY/asciicam/mosaic"
)

// ErrInvalidRequest is wrapped by request level validation failures.
var ErrInvalidRequest = errors.New("convert: invalid request")

// Mode selects the renderer.
type Mode string

const (
	ModeHalftone Mode = "halftone"
	ModeASCII    Mode = "ascii"
)

// ParseMode accepts "halftone" or "ascii"; the empty string means halftone.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeHalftone:
		return ModeHalftone, nil
	case ModeASCII:
		return ModeASCII, nil
	default:
		return "", fmt.Errorf("%w: 未知的转换模式 %q", ErrInvalidRequest, s)
	}
}

// Request carries caller supplied parameters. A nil field was not given
// and takes its default. DotSpacing, Angle and Traditional are legacy
// aliases of DotResolution, ScreenAngle and Variant; the new name wins
// when both are set.
type Request struct {
	Mode string `json:"mode,omitempty"`

	DotSize       *float64          `json:"dot_size,omitempty"`
	DotResolution *int              `json:"dot_resolution,omitempty"`
	DotSpacing    *int              `json:"dot_spacing,omitempty"`
	ScreenAngle   *float64          `json:"screen_angle,omitempty"`
	Angle         *float64          `json:"angle,omitempty"`
	Threshold     *int              `json:"threshold,omitempty"`
	Invert        *bool             `json:"invert,omitempty"`
	Variant       *halftone.Variant `json:"variant,omitempty"`
	Traditional   *bool             `json:"traditional,omitempty"`

	CharWidth *int    `json:"char_width,omitempty"`
	FontSize  *int    `json:"font_size,omitempty"`
	GlyphRamp *string `json:"glyph_ramp,omitempty"`
}

// DecodeRequest reads a JSON request body. Unknown fields are rejected.
func DecodeRequest(r io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("%w: 解析请求 JSON 失败: %v", ErrInvalidRequest, err)
	}
	return req, nil
}

// Overlay returns r with every field set in o replacing r's value. A new
// name and its legacy alias are replaced together, so an alias given in o
// is not shadowed by the new name coming from r.
func (r Request) Overlay(o Request) Request {
	out := r
	if o.Mode != "" {
		out.Mode = o.Mode
	}
	setPtr(&out.DotSize, o.DotSize)
	if o.DotResolution != nil || o.DotSpacing != nil {
		out.DotResolution, out.DotSpacing = o.DotResolution, o.DotSpacing
	}
	if o.ScreenAngle != nil || o.Angle != nil {
		out.ScreenAngle, out.Angle = o.ScreenAngle, o.Angle
	}
	if o.Variant != nil || o.Traditional != nil {
		out.Variant, out.Traditional = o.Variant, o.Traditional
	}
	setPtr(&out.Threshold, o.Threshold)
	setPtr(&out.Invert, o.Invert)
	setPtr(&out.CharWidth, o.CharWidth)
	setPtr(&out.FontSize, o.FontSize)
	setPtr(&out.GlyphRamp, o.GlyphRamp)
	return out
}

func setPtr[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// Resolved holds the values a render actually uses after defaults and
// alias precedence are applied. Only the block matching Mode is meaningful.
type Resolved struct {
	Mode     Mode
	Halftone halftone.Params
	ASCII    mosaic.Params
}

// Resolve applies defaults and new-over-legacy precedence and validates
// the result.
func (r Request) Resolve() (Resolved, error) {
	mode, err := ParseMode(r.Mode)
	if err != nil {
		return Resolved{}, err
	}
	out := Resolved{Mode: mode}
	switch mode {
	case ModeASCII:
		out.ASCII, err = r.resolveASCII()
	default:
		out.Halftone, err = r.resolveHalftone()
	}
	if err != nil {
		return Resolved{}, err
	}
	return out, nil
}

func (r Request) resolveHalftone() (halftone.Params, error) {
	p := halftone.Params{
		DotSize:   halftone.DefaultDotSize,
		Threshold: halftone.DefaultThreshold,
		Variant:   halftone.Traditional,
	}
	switch {
	case r.Variant != nil:
		p.Variant = *r.Variant
	case r.Traditional != nil && !*r.Traditional:
		p.Variant = halftone.Legacy
	}
	if r.DotSize != nil {
		p.DotSize = *r.DotSize
	}
	switch {
	case r.DotResolution != nil:
		p.Spacing = *r.DotResolution
	case r.DotSpacing != nil:
		p.Spacing = *r.DotSpacing
	default:
		p.Spacing = halftone.DefaultSpacing(p.Variant, p.DotSize)
	}
	switch {
	case r.ScreenAngle != nil:
		p.Angle = *r.ScreenAngle
	case r.Angle != nil:
		p.Angle = *r.Angle
	}
	if r.Threshold != nil {
		p.Threshold = *r.Threshold
	}
	if p.Threshold < 0 || p.Threshold > 255 {
		return p, fmt.Errorf("%w: threshold 必须在 0-255 之间，实际 %d", halftone.ErrInvalidParameter, p.Threshold)
	}
	if r.Invert != nil {
		p.Invert = *r.Invert
	}
	return p.Validate()
}

func (r Request) resolveASCII() (mosaic.Params, error) {
	p := mosaic.Params{
		CharWidth: mosaic.DefaultCharWidth,
		FontSize:  mosaic.DefaultFontSize,
		Ramp:      mosaic.DefaultRamp,
	}
	if r.CharWidth != nil {
		p.CharWidth = *r.CharWidth
	}
	if r.FontSize != nil {
		p.FontSize = *r.FontSize
	}
	if r.GlyphRamp != nil {
		p.Ramp = *r.GlyphRamp
	}
	if r.Invert != nil {
		p.Invert = *r.Invert
	}
	return p.Validate()
}

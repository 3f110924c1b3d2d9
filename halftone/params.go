package halftone

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ByLCY/asciicam/screen"
)

// ErrInvalidParameter is wrapped by every validation failure of Params.
var ErrInvalidParameter = errors.New("halftone: invalid parameter")

// Variant selects the dot acceptance rule of the screen.
type Variant int

const (
	// Traditional keeps dots whose centre lies up to DotSize outside the
	// canvas, so partial dots appear along the border.
	Traditional Variant = iota
	// Legacy discards every dot whose centre is outside [0,W)×[0,H).
	Legacy
)

// Defaults shared with the convert request layer.
const (
	DefaultDotSize       = 8.0
	DefaultLegacySpacing = 5
	DefaultThreshold     = 127
)

func (v Variant) String() string {
	switch v {
	case Legacy:
		return "legacy"
	case Traditional:
		return "traditional"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant accepts "legacy" or "traditional" (case insensitive).
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "legacy", "classic":
		return Legacy, nil
	case "traditional", "":
		return Traditional, nil
	default:
		return 0, fmt.Errorf("%w: 未知的网点算法 %q", ErrInvalidParameter, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(b []byte) error {
	parsed, err := ParseVariant(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Params controls one halftone render.
type Params struct {
	DotSize   float64 `json:"dot_size"`       // maximum dot diameter in pixels; radius tops out at DotSize/2
	Spacing   int     `json:"dot_resolution"` // centre to centre distance in pixels
	Angle     float64 `json:"screen_angle"`   // degrees
	Threshold int     `json:"threshold"`      // accepted for compatibility, not used by the screen
	Invert    bool    `json:"invert"`
	Variant   Variant `json:"variant"`
}

// DefaultSpacing returns the spacing used when the caller gives none:
// square cells the size of the dot for Traditional, 5px for Legacy.
func DefaultSpacing(v Variant, dotSize float64) int {
	if v == Traditional {
		return max(1, int(dotSize))
	}
	return DefaultLegacySpacing
}

// Validate checks p and returns a copy with the angle folded into [0,360).
func (p Params) Validate() (Params, error) {
	if math.IsNaN(p.DotSize) || math.IsInf(p.DotSize, 0) || p.DotSize <= 0 {
		return p, fmt.Errorf("%w: dot_size 必须为正数，实际 %v", ErrInvalidParameter, p.DotSize)
	}
	if p.Spacing < 1 {
		return p, fmt.Errorf("%w: dot_resolution 必须 ≥ 1，实际 %d", ErrInvalidParameter, p.Spacing)
	}
	if p.Variant != Legacy && p.Variant != Traditional {
		return p, fmt.Errorf("%w: 未知的网点算法 %d", ErrInvalidParameter, int(p.Variant))
	}
	angle, err := screen.NormalizeAngle(p.Angle)
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	p.Angle = angle
	return p, nil
}

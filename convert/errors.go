package convert

import (
	"errors"

	"github.com/ByLCY/asciicam/fonts"
	"github.com/ByLCY/asciicam/halftone"
	"github.com/ByLCY/asciicam/mosaic"
)

// Kind is the machine-readable class of a conversion failure.
type Kind string

const (
	KindDecode           Kind = "decode_error"
	KindInvalidParameter Kind = "invalid_parameter"
	// KindFontUnavailable is recovered by the font fallback chain and only
	// shows up in logs.
	KindFontUnavailable Kind = "font_unavailable"
	KindEncode          Kind = "encode_error"
)

// Error attaches a Kind and the failing step to an underlying error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the failure class of err. Validation errors of the
// halftone and mosaic packages are invalid_parameter even when unwrapped.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	switch {
	case errors.Is(err, halftone.ErrInvalidParameter), errors.Is(err, mosaic.ErrInvalidParameter), errors.Is(err, ErrInvalidRequest):
		return KindInvalidParameter
	case errors.Is(err, fonts.ErrUnavailable):
		return KindFontUnavailable
	}
	return ""
}

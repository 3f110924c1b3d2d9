// Package convert is the entry point of the rendering engine: it resolves
// a Request, runs the halftone or ASCII mosaic renderer over a grayscale
// raster and reports the outcome as a Result.
//
// Failures never escape as Go errors or panics. They are returned as a
// Result with Success false and a machine-readable error kind. The only
// exception is a nil source raster, which is a programming error.
package convert

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/ByLCY/asciicam/fonts"
	"github.com/ByLCY/asciicam/halftone"
	"github.com/ByLCY/asciicam/layout"
	"github.com/ByLCY/asciicam/mosaic"
	"github.com/ByLCY/asciicam/renderer"
	canvasrenderer "github.com/ByLCY/asciicam/renderer/canvas"
)

// Converter renders requests. The zero value is ready to use: it draws
// with the canvas renderer and the built-in monospace font, and does not
// log. A Converter holds no per-call state and may be shared.
type Converter struct {
	Renderer   renderer.Renderer
	Typesetter layout.Typesetter   // defaults to Renderer when it implements layout.Typesetter
	Font       layout.FontResource // zero value selects fonts.Builtin()
	Logger     *slog.Logger
	Now        func() time.Time
}

// New returns a Converter using the canvas renderer, font and logger.
func New(font layout.FontResource, logger *slog.Logger) *Converter {
	r := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Logger: logger})
	return &Converter{Renderer: r, Typesetter: r, Font: font, Logger: logger}
}

// ErrorInfo is the serialized form of a failure.
type ErrorInfo struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Result is the outcome of one conversion. It is built fresh per call and
// never modified after it is returned.
type Result struct {
	Success         bool       `json:"success"`
	Mode            Mode       `json:"mode"`
	Message         string     `json:"message"`
	Error           *ErrorInfo `json:"error,omitempty"`
	Parameters      any        `json:"parameters,omitempty"`
	OutputSize      *[2]int    `json:"output_size,omitempty"`
	ASCIIDimensions *[2]int    `json:"ascii_dimensions,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
	InputPath       string     `json:"input_path,omitempty"`
	OutputPath      string     `json:"output_path,omitempty"`
	TextOutputPath  string     `json:"text_output_path,omitempty"`

	Image *image.RGBA  `json:"-"`
	Text  string       `json:"-"` // ASCII transcript, rows joined by "\n"
	Page  *layout.Page `json:"-"`
	Err   error        `json:"-"`
}

// ASCIIParameters is the parameter echo of an ASCII render.
type ASCIIParameters struct {
	mosaic.Params
	CharHeight int `json:"char_height"`
}

// Convert renders src according to req. src must not be nil.
func (c *Converter) Convert(src *image.Gray, req Request) *Result {
	if src == nil {
		panic("convert: nil source raster")
	}
	start := c.now()
	mode, _ := ParseMode(req.Mode)

	resolved, err := req.Resolve()
	if err != nil {
		return c.fail(mode, start, wrap(KindInvalidParameter, "解析参数", err))
	}

	var res *Result
	switch resolved.Mode {
	case ModeASCII:
		res, err = c.ascii(src, resolved.ASCII)
	default:
		res, err = c.halftone(src, resolved.Halftone)
	}
	if err != nil {
		return c.fail(resolved.Mode, start, err)
	}
	res.Mode = resolved.Mode
	res.Success = true
	res.Timestamp = start
	b := res.Image.Bounds()
	res.OutputSize = &[2]int{b.Dx(), b.Dy()}
	c.logger().Info("转换完成",
		"mode", res.Mode,
		"size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
		"duration", c.now().Sub(start))
	return res
}

func (c *Converter) halftone(src *image.Gray, p halftone.Params) (*Result, error) {
	page, err := halftone.Build(src, p)
	if err != nil {
		return nil, wrap(KindInvalidParameter, "网点布局", err)
	}
	img, err := c.render(page)
	if err != nil {
		return nil, err
	}
	c.logger().Debug("网点参数", "params", p.Describe(), "dots", len(page.Circles))
	return &Result{
		Message:    "网点图生成成功",
		Parameters: p,
		Image:      img,
		Page:       page,
	}, nil
}

func (c *Converter) ascii(src *image.Gray, p mosaic.Params) (*Result, error) {
	t, err := mosaic.Transcribe(src, p)
	if err != nil {
		return nil, wrap(KindInvalidParameter, "字符画采样", err)
	}
	ts := c.Typesetter
	if ts == nil {
		ts, _ = c.renderer().(layout.Typesetter)
	}
	page, err := mosaic.Build(t, c.font(), float64(p.FontSize), ts)
	if err != nil {
		return nil, wrap(KindEncode, "字符画排版", err)
	}
	img, err := c.render(page)
	if err != nil {
		return nil, err
	}
	return &Result{
		Message:         "字符画生成成功",
		Parameters:      ASCIIParameters{Params: p, CharHeight: t.Rows},
		ASCIIDimensions: &[2]int{t.Cols, t.Rows},
		Image:           img,
		Text:            t.String(),
		Page:            page,
	}, nil
}

func (c *Converter) render(page *layout.Page) (*image.RGBA, error) {
	img, err := c.renderer().Render(page)
	if err != nil {
		return nil, wrap(KindEncode, "渲染", err)
	}
	return img, nil
}

func (c *Converter) fail(mode Mode, at time.Time, err error) *Result {
	kind := KindOf(err)
	if kind == "" {
		kind = KindEncode
	}
	if mode == "" {
		mode = ModeHalftone
	}
	msg := "网点图生成失败"
	if mode == ModeASCII {
		msg = "字符画生成失败"
	}
	c.logger().Error("转换失败", "mode", mode, "kind", kind, "err", err)
	return &Result{
		Mode:      mode,
		Message:   msg,
		Error:     &ErrorInfo{Kind: kind, Message: err.Error()},
		Timestamp: at,
		Err:       err,
	}
}

func (c *Converter) renderer() renderer.Renderer {
	if c.Renderer != nil {
		return c.Renderer
	}
	return canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Logger: c.Logger})
}

func (c *Converter) font() layout.FontResource {
	if c.Font.Src == "" {
		return fonts.Builtin()
	}
	return c.Font
}

func (c *Converter) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

func (c *Converter) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

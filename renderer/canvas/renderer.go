package canvasrenderer

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"strings"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/asciicam/fonts"
	"github.com/ByLCY/asciicam/layout"
	"github.com/ByLCY/asciicam/raster"
	"github.com/ByLCY/asciicam/renderer"
)

// Renderer draws pages via github.com/tdewolff/canvas at one pixel per
// canvas unit. It holds only immutable resources, so one value may serve
// concurrent calls; every call builds its own canvas and font families.
type Renderer struct {
	fontBlobs map[string][]byte // by unique name, addressed as built-in:<name>
	logger    *slog.Logger
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	Fonts  map[string]Resource // injected fonts accessible via built-in:<name>
	Logger *slog.Logger
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a renderer that resolves fonts from disk and the
// built-in faces only.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with injected font resources.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		fontBlobs: map[string][]byte{},
		logger:    opts.Logger,
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, err := os.ReadFile(res.Path)
			if err != nil || len(data) == 0 {
				r.logger.Warn("注入字体不可读，使用时回退到内置字体", "name", name, "path", res.Path, "kind", "font_unavailable", "err", err)
				continue
			}
			r.fontBlobs[name] = data
		}
	}
	return r
}

// Render rasterizes page onto its background colour.
func (r *Renderer) Render(page *layout.Page) (*image.RGBA, error) {
	if page == nil {
		return nil, fmt.Errorf("渲染页面为空")
	}
	if page.Width <= 0 || page.Height <= 0 {
		return nil, fmt.Errorf("页面尺寸无效: %dx%d", page.Width, page.Height)
	}

	c := canvas.New(float64(page.Width), float64(page.Height))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与页面保持左上角为原点

	r.drawCircles(ctx, page.Circles)
	for _, tb := range page.Texts {
		if err := r.drawTextBox(ctx, tb); err != nil {
			return nil, err
		}
	}

	img := rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace)
	return raster.Flatten(img, colorFromLayout(page.Background)), nil
}

// Metrics implements layout.Typesetter for fixed-pitch faces.
func (r *Renderer) Metrics(font layout.FontResource, sizePx float64) (layout.FontMetrics, error) {
	if sizePx <= 0 {
		return layout.FontMetrics{}, fmt.Errorf("字号必须为正数，实际 %g", sizePx)
	}
	face, err := r.fontFace(font, layout.PxToPt(sizePx), layout.Black)
	if err != nil {
		return layout.FontMetrics{}, err
	}
	m := face.Metrics()
	return layout.FontMetrics{
		Advance:    face.TextWidth("M"),
		LineHeight: m.LineHeight,
		Ascent:     m.Ascent,
	}, nil
}

// drawCircles 绘制实心网点，不描边。
func (r *Renderer) drawCircles(ctx *canvas.Context, circles []layout.Circle) {
	ctx.SetStrokeColor(canvas.Transparent)
	for _, c := range circles {
		if c.R <= 0 {
			continue
		}
		ctx.SetFillColor(colorFromLayout(c.Fill))
		ctx.DrawPath(c.CX, c.CY, canvas.Circle(c.R))
	}
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox) error {
	// TextBox 的坐标/字号/行高均为 px；创建字体面需要 pt，这里做一次 px→pt。
	face, err := r.fontFace(tb.Font, layout.PxToPt(tb.FontSize), tb.Color)
	if err != nil {
		return err
	}
	metrics := face.Metrics()
	lineHeight := tb.LineHeight
	if lineHeight <= 0 {
		lineHeight = metrics.LineHeight
	}

	cursorY := tb.Y
	for _, line := range tb.Lines {
		// 基线位置：行顶部加上字体上升部
		baseline := cursorY + metrics.Ascent
		if tb.Advance > 0 {
			// 逐字符落在固定网格上，行首空白不会被排版吞掉
			col := 0
			for _, ch := range line.Content {
				if ch != ' ' {
					x := tb.X + float64(col)*tb.Advance
					ctx.DrawText(x, baseline, canvas.NewTextLine(face, string(ch), canvas.Left))
				}
				col++
			}
		} else if strings.TrimSpace(line.Content) != "" {
			ctx.DrawText(tb.X, baseline, canvas.NewTextLine(face, line.Content, canvas.Left))
		}
		cursorY += lineHeight
	}
	return nil
}

func (r *Renderer) fontFace(font layout.FontResource, sizePt float64, col layout.Color) (*canvas.FontFace, error) {
	family, err := r.fontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(sizePt, colorFromLayout(col), canvas.FontRegular, canvas.FontNormal), nil
}

// fontFamily loads font into a fresh family, falling back to the built-in
// face when the resource cannot be read or parsed.
func (r *Renderer) fontFamily(font layout.FontResource) (*canvas.FontFamily, error) {
	familyName := font.Name
	if familyName == "" {
		familyName = "Mono"
	}
	family := canvas.NewFontFamily(familyName)
	if err := r.loadFontIntoFamily(family, font); err != nil {
		r.logger.Warn("字体不可用，回退到内置字体", "font", font.Src, "kind", "font_unavailable", "err", err)
		return r.fallback()
	}
	return family, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, canvas.FontRegular)
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	src := font.Src
	if src == "" {
		src = fonts.BuiltinMono
	}
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
	}
	return fonts.Load(src)
}

func (r *Renderer) fallback() (*canvas.FontFamily, error) {
	data, err := fonts.Load(fonts.BuiltinMono)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("asciicam-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("加载内置字体失败: %w", err)
	}
	return family, nil
}

func colorFromLayout(c layout.Color) color.Color {
	return color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 255}
}

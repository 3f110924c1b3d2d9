package renderer

import (
	"image"

	"github.com/ByLCY/asciicam/layout"
)

// Renderer 将页面描述栅格化为不透明的 RGB 图像。
// 同一页面多次渲染必须得到逐字节一致的像素。
type Renderer interface {
	Render(page *layout.Page) (*image.RGBA, error)
}

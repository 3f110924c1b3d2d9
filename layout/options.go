package layout

// Typesetter 提供等宽字体的度量，字符画排版据此计算画布尺寸。
// sizePx 为字号（px）。
type Typesetter interface {
	Metrics(font FontResource, sizePx float64) (FontMetrics, error)
}

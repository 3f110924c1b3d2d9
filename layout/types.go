package layout

// 该文件定义渲染页面的描述结构，供网点/字符画排版、渲染与调试 JSON 共用。
// 所有坐标与尺寸单位均为输出像素（px），原点在左上角。

// Page 记录画布尺寸与可以直接绘制的元素。
type Page struct {
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Background Color     `json:"background"`
	Circles    []Circle  `json:"circles,omitempty"`
	Texts      []TextBox `json:"texts,omitempty"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// 常用颜色。
var (
	White = Color{R: 255, G: 255, B: 255}
	Black = Color{}
)

// Circle 表示一个实心圆（网点）。
type Circle struct {
	CX   float64 `json:"cx"`
	CY   float64 `json:"cy"`
	R    float64 `json:"r"`
	Fill Color   `json:"fill"`
}

// TextBox 表示一个已经排好坐标的文本块，每行左对齐。
type TextBox struct {
	X          float64      `json:"x"`
	Y          float64      `json:"y"`
	Font       FontResource `json:"font"`
	FontSize   float64      `json:"fontSize"`   // 字号（px）
	LineHeight float64      `json:"lineHeight"` // 行距（px），<=0 时由渲染器按字体度量回填
	Advance    float64      `json:"advance"`    // 字符步进（px），>0 时逐字符落在固定网格上
	Color      Color        `json:"color"`
	Lines      []TextLine   `json:"lines"`
}

// TextLine 表示排版后的一行文本内容及其宽高。
type TextLine struct {
	Content string  `json:"content"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// FontResource 描述字体资源，src 可以是文件路径或 builtin:* 形式。
type FontResource struct {
	Name string `json:"name"`
	Src  string `json:"src"`
}

// FontMetrics 保存等宽字体在给定字号下的度量（px）。
type FontMetrics struct {
	Advance    float64 `json:"advance"`    // 单个字符的步进宽度
	LineHeight float64 `json:"lineHeight"` // 行高
	Ascent     float64 `json:"ascent"`
}

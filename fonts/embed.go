package fonts

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/ByLCY/asciicam/layout"
)

// BuiltinMono 为内置等宽字体（Go Mono），保证字体链最终可用。
const BuiltinMono = "builtin:gomono"

// ErrUnavailable 表示候选字体无法使用；调用方应回退到下一个候选。
var ErrUnavailable = errors.New("font unavailable")

// DefaultCandidates 为常见平台上的等宽字体路径，按顺序尝试。
var DefaultCandidates = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSansMono.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationMono-Regular.ttf",
	"/System/Library/Fonts/Monaco.ttf",
	"C:/Windows/Fonts/consola.ttf",
}

var builtins = map[string][]byte{
	"gomono": gomono.TTF,
}

// Builtin 返回内置字体资源。
func Builtin() layout.FontResource {
	return layout.FontResource{Name: "Go Mono", Src: BuiltinMono}
}

// Load 返回字体的字节数据，src 可写为 "builtin:gomono" 或文件路径。
func Load(src string) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: 字体缺少 src", ErrUnavailable)
	}
	if strings.HasPrefix(src, "builtin:") || strings.HasPrefix(src, "built-in:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		data, ok := builtins[name]
		if !ok {
			return nil, fmt.Errorf("%w: 找不到内置字体资源 builtin:%s", ErrUnavailable, name)
		}
		return data, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取字体 %s 失败: %v", ErrUnavailable, src, err)
	}
	return data, nil
}

// Check 解析字体并确认其为等宽字体（'i' 与 'M' 的步进一致）。
func Check(data []byte) error {
	f, err := sfnt.Parse(data)
	if err != nil {
		return fmt.Errorf("%w: 解析字体失败: %v", ErrUnavailable, err)
	}
	var buf sfnt.Buffer
	ppem := fixed.I(64)
	var advances [2]fixed.Int26_6
	for i, r := range []rune{'i', 'M'} {
		idx, err := f.GlyphIndex(&buf, r)
		if err != nil || idx == 0 {
			return fmt.Errorf("%w: 字体缺少字符 %q", ErrUnavailable, r)
		}
		adv, err := f.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			return fmt.Errorf("%w: 读取字符 %q 步进失败: %v", ErrUnavailable, r, err)
		}
		advances[i] = adv
	}
	if advances[0] != advances[1] {
		return fmt.Errorf("%w: 字体不是等宽字体", ErrUnavailable)
	}
	return nil
}

// Resolve 依次尝试候选字体，返回第一个可用的资源；全部失败时返回内置字体。
// 该函数不会失败，被跳过的候选以 debug 级别记录。
func Resolve(candidates []string, logger *slog.Logger) layout.FontResource {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for _, src := range candidates {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		data, err := Load(src)
		if err == nil {
			err = Check(data)
		}
		if err != nil {
			logger.Debug("跳过字体候选", "src", src, "kind", "font_unavailable", "err", err)
			continue
		}
		res := layout.FontResource{Name: fontName(src), Src: src}
		logger.Info("使用字体", "name", res.Name, "src", res.Src)
		return res
	}
	res := Builtin()
	logger.Info("使用内置字体", "name", res.Name)
	return res
}

func fontName(src string) string {
	if strings.HasPrefix(src, "builtin:") {
		return strings.TrimPrefix(src, "builtin:")
	}
	base := filepath.Base(src)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

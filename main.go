package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/ByLCY/asciicam/binding"
	"github.com/ByLCY/asciicam/convert"
	"github.com/ByLCY/asciicam/fonts"
	"github.com/ByLCY/asciicam/halftone"
	"github.com/ByLCY/asciicam/layout"
	"github.com/ByLCY/asciicam/mosaic"
	"github.com/ByLCY/asciicam/preset"
	"github.com/ByLCY/asciicam/raster"
)

// options 汇总命令行中与请求参数无关的设置。
type options struct {
	Input       string
	Output      string
	Preset      string
	PresetFile  string
	ListPresets bool
	RequestFile string
	ResultPath  string
	DebugPath   string
	Fonts       []string
	FitTerminal bool
	PrintText   bool
}

func main() {
	input := flag.String("in", "photo.jpg", "输入图片路径")
	output := flag.String("out", "output/${mode}_${timestamp}.png", "PNG 输出路径，支持 ${mode} ${timestamp} ${preset} ${input} ${parameters.*} 模板")
	presetName := flag.String("preset", "", "使用的预设名称，命令行参数会覆盖预设中的值")
	presetFile := flag.String("presets", "", "用户预设文件路径")
	listPresets := flag.Bool("list-presets", false, "列出可用预设后退出")
	requestFile := flag.String("request", "", "JSON 请求文件（字段与 /convert 接口一致）")
	resultPath := flag.String("result", "", "结果 JSON 输出路径，- 表示标准输出")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	fontList := flag.String("fonts", strings.Join(fonts.DefaultCandidates, ","), "逗号分隔的等宽字体候选，全部不可用时使用内置字体")
	registerRequestFlags(flag.CommandLine)
	fitTerminal := flag.Bool("fit-terminal", false, "字符画列数取终端宽度")
	printText := flag.Bool("print-text", false, "将字符画文本打印到标准输出")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	flagReq, err := requestFromFlags(flag.CommandLine)
	if err != nil {
		logger.Error("命令行参数无效", "err", err)
		os.Exit(2)
	}

	opts := options{
		Input:       *input,
		Output:      *output,
		Preset:      *presetName,
		PresetFile:  *presetFile,
		ListPresets: *listPresets,
		RequestFile: *requestFile,
		ResultPath:  *resultPath,
		DebugPath:   *debug,
		Fonts:       splitList(*fontList),
		FitTerminal: *fitTerminal,
		PrintText:   *printText,
	}
	res, err := run(opts, flagReq, logger, os.Stdout)
	if err != nil {
		logger.Error("生成失败", "err", err)
		os.Exit(1)
	}
	if res != nil {
		fmt.Fprintf(os.Stderr, "已生成 %s：%s\n", res.Mode, res.OutputPath)
	}
}

// run 串联预设、请求合并、转换与输出。只有转换成功时返回非空结果。
func run(opts options, flagReq convert.Request, logger *slog.Logger, stdout io.Writer) (*convert.Result, error) {
	presets := preset.Builtin()
	if opts.PresetFile != "" {
		user, err := preset.Load(opts.PresetFile)
		if err != nil {
			return nil, err
		}
		presets = presets.With(user)
	}
	if opts.ListPresets {
		return nil, listPresets(stdout, presets)
	}

	req := convert.Request{}
	presetLabel := "custom"
	if opts.Preset != "" {
		p, err := presets.Lookup(opts.Preset)
		if err != nil {
			return nil, err
		}
		req = p.Request
		presetLabel = p.Name
		logger.Debug("使用预设", "name", p.Name, "description", p.Description)
	}
	if opts.RequestFile != "" {
		fileReq, err := loadRequest(opts.RequestFile)
		if err != nil {
			return nil, err
		}
		req = req.Overlay(fileReq)
	}
	req = req.Overlay(flagReq)
	if opts.FitTerminal {
		req = fitToTerminal(req, logger)
	}

	out, err := outputPath(opts, req, presetLabel, time.Now())
	if err != nil {
		return nil, err
	}

	font := fonts.Resolve(opts.Fonts, logger)
	conv := convert.New(font, logger)
	res := conv.ConvertFile(opts.Input, out, req)

	if opts.DebugPath != "" && res.Page != nil {
		if err := layout.WriteDebugJSON(res.Page, opts.DebugPath); err != nil {
			return nil, fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}
	if opts.ResultPath != "" {
		if err := writeResult(res, opts.ResultPath, stdout); err != nil {
			return nil, err
		}
	}
	if !res.Success {
		return nil, fmt.Errorf("%s: [%s] %s", res.Message, res.Error.Kind, res.Error.Message)
	}
	if opts.PrintText && res.Mode == convert.ModeASCII {
		fmt.Fprintln(stdout, res.Text)
	}
	return res, nil
}

// registerRequestFlags 定义与请求字段一一对应的参数。
func registerRequestFlags(fs *flag.FlagSet) {
	fs.String("mode", string(convert.ModeHalftone), "转换模式：halftone 或 ascii")
	fs.Float64("dot-size", halftone.DefaultDotSize, "网点最大直径（px）")
	fs.Int("dot-resolution", 0, "网点间距（px），默认传统算法等于网点直径、旧算法为 5")
	fs.Int("dot-spacing", 0, "旧参数，同 -dot-resolution")
	fs.Float64("screen-angle", 0, "网屏角度（度）")
	fs.Float64("angle", 0, "旧参数，同 -screen-angle")
	fs.Int("threshold", halftone.DefaultThreshold, "阈值（仅为接口兼容保留）")
	fs.Bool("invert", false, "反相")
	fs.Bool("traditional", true, "使用传统网点算法（边缘保留半个网点）")
	fs.String("variant", "", "网点算法：traditional 或 legacy，优先于 -traditional")
	fs.Int("char-width", mosaic.DefaultCharWidth, "字符画列数")
	fs.Int("font-size", mosaic.DefaultFontSize, "字符画字号（px）")
	fs.String("ramp", mosaic.DefaultRamp, "字符梯度，由浅到深")
}

// requestFromFlags 只收集用户显式设置过的参数，使旧参数与新参数的优先级
// 对命令行与 JSON 请求一致。
func requestFromFlags(fs *flag.FlagSet) (convert.Request, error) {
	var req convert.Request
	var errs []error
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.(flag.Getter).Get()
		switch f.Name {
		case "mode":
			req.Mode = v.(string)
		case "dot-size":
			req.DotSize = ptr(v.(float64))
		case "dot-resolution":
			req.DotResolution = ptr(v.(int))
		case "dot-spacing":
			req.DotSpacing = ptr(v.(int))
		case "screen-angle":
			req.ScreenAngle = ptr(v.(float64))
		case "angle":
			req.Angle = ptr(v.(float64))
		case "threshold":
			req.Threshold = ptr(v.(int))
		case "invert":
			req.Invert = ptr(v.(bool))
		case "traditional":
			req.Traditional = ptr(v.(bool))
		case "variant":
			variant, err := halftone.ParseVariant(v.(string))
			if err != nil {
				errs = append(errs, err)
				return
			}
			req.Variant = &variant
		case "char-width":
			req.CharWidth = ptr(v.(int))
		case "font-size":
			req.FontSize = ptr(v.(int))
		case "ramp":
			req.GlyphRamp = ptr(v.(string))
		}
	})
	return req, errors.Join(errs...)
}

func ptr[T any](v T) *T { return &v }

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func loadRequest(path string) (convert.Request, error) {
	file, err := os.Open(path)
	if err != nil {
		return convert.Request{}, fmt.Errorf("无法打开请求文件 %s: %w", path, err)
	}
	defer file.Close()
	return convert.DecodeRequest(file)
}

// fitToTerminal 在标准输出为终端时把字符画列数设为终端宽度。
func fitToTerminal(req convert.Request, logger *slog.Logger) convert.Request {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		logger.Warn("标准输出不是终端，忽略 -fit-terminal")
		return req
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width < 1 {
		logger.Warn("读取终端宽度失败，忽略 -fit-terminal", "err", err)
		return req
	}
	req.CharWidth = ptr(width)
	return req
}

// outputPath 展开输出路径模板。参数无效时保留模板原文，转换会报告失败且不写文件。
func outputPath(opts options, req convert.Request, presetLabel string, now time.Time) (string, error) {
	if !strings.Contains(opts.Output, "${") {
		return opts.Output, nil
	}
	resolved, err := req.Resolve()
	if err != nil {
		return opts.Output, nil
	}
	var params any = resolved.Halftone
	if resolved.Mode == convert.ModeASCII {
		params = resolved.ASCII
	}
	paramVars, err := binding.Vars(params)
	if err != nil {
		return "", err
	}
	base := filepath.Base(opts.Input)
	vars := map[string]any{
		"mode":       string(resolved.Mode),
		"timestamp":  now.Format("20060102_150405"),
		"preset":     presetLabel,
		"input":      strings.TrimSuffix(base, filepath.Ext(base)),
		"parameters": paramVars,
	}
	out, err := binding.Expand(opts.Output, vars)
	if err != nil {
		return "", fmt.Errorf("展开输出路径失败: %w", err)
	}
	return out, nil
}

func listPresets(w io.Writer, set *preset.Set) error {
	for _, name := range set.Names() {
		p, err := set.Lookup(name)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%-24s %s\n", name, p.Description); err != nil {
			return err
		}
	}
	return nil
}

func writeResult(res *convert.Result, path string, stdout io.Writer) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化结果失败: %w", err)
	}
	data = append(data, '\n')
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := raster.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("写入结果 JSON 失败: %w", err)
	}
	return nil
}

package convert

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ByLCY/asciicam/raster"
)

// TextPath returns the transcript path written next to a PNG output:
// the output path with its extension replaced by ".txt".
func TextPath(out string) string {
	ext := filepath.Ext(out)
	if strings.EqualFold(ext, ".txt") {
		return out + ".txt"
	}
	return strings.TrimSuffix(out, ext) + ".txt"
}

// ConvertFile decodes the image at in, converts it and writes the PNG to
// out. ASCII renders also write the transcript to TextPath(out). Either
// every output file is written or none is.
func (c *Converter) ConvertFile(in, out string, req Request) *Result {
	start := c.now()
	mode, _ := ParseMode(req.Mode)

	src, format, err := raster.Load(in)
	if err != nil {
		res := c.fail(mode, start, wrap(KindDecode, "读取输入", err))
		res.InputPath = in
		return res
	}
	c.logger().Debug("已解码输入", "path", in, "format", format,
		"width", src.Bounds().Dx(), "height", src.Bounds().Dy())

	res := c.Convert(src, req)
	res.InputPath = in
	if !res.Success {
		return res
	}

	textPath := ""
	if res.Mode == ModeASCII {
		textPath = TextPath(out)
	}
	if err := writeOutputs(out, textPath, res); err != nil {
		failed := c.fail(res.Mode, start, wrap(KindEncode, "写入输出", err))
		failed.InputPath = in
		return failed
	}
	res.OutputPath = out
	res.TextOutputPath = textPath
	return res
}

// writeOutputs stages every output before renaming any of them into place.
func writeOutputs(pngPath, textPath string, res *Result) error {
	img, err := raster.CreateTemp(pngPath)
	if err != nil {
		return err
	}
	defer img.Discard()
	if err := img.Write(func(w io.Writer) error { return raster.EncodePNG(w, res.Image) }); err != nil {
		return err
	}

	if textPath == "" {
		return img.Commit()
	}

	txt, err := raster.CreateTemp(textPath)
	if err != nil {
		return err
	}
	defer txt.Discard()
	if err := txt.Write(func(w io.Writer) error {
		_, err := io.WriteString(w, res.Text)
		return err
	}); err != nil {
		return err
	}

	prev, err := setAside(pngPath)
	if err != nil {
		return err
	}
	if err := img.Commit(); err != nil {
		prev.restore()
		return err
	}
	if err := txt.Commit(); err != nil {
		os.Remove(pngPath)
		prev.restore()
		return err
	}
	prev.drop()
	return nil
}

// asideFile is an existing output moved out of the way until the new
// outputs are all in place.
type asideFile struct {
	path   string // original location
	backup string // empty when nothing existed at path
}

// setAside renames an existing file at path to a hidden name in the same
// directory.
func setAside(path string) (asideFile, error) {
	a := asideFile{path: path}
	if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
		return a, nil
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.bak")
	if err != nil {
		return a, fmt.Errorf("备份 %s 失败: %w", path, err)
	}
	f.Close()
	if err := os.Rename(path, f.Name()); err != nil {
		os.Remove(f.Name())
		return a, fmt.Errorf("备份 %s 失败: %w", path, err)
	}
	a.backup = f.Name()
	return a, nil
}

func (a asideFile) restore() {
	if a.backup != "" {
		os.Rename(a.backup, a.path)
	}
}

func (a asideFile) drop() {
	if a.backup != "" {
		os.Remove(a.backup)
	}
}

// Package raster decodes source photos into 8-bit grayscale and writes
// rendered outputs to disk.
package raster

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode reads any registered image format and returns its luma channel.
// It also reports the detected format name.
func Decode(r io.Reader) (*image.Gray, string, error) {
	img, format, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, "", fmt.Errorf("解码图片失败: %w", err)
	}
	return ToGray(img), format, nil
}

// Load opens path, decodes it and closes the file on every path.
func Load(path string) (*image.Gray, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("读取图片 %s 失败: %w", path, err)
	}
	defer file.Close()
	gray, format, err := Decode(file)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return gray, format, nil
}

// ToGray converts img to an 8-bit grayscale raster anchored at (0,0) using
// ITU-R 601 luma weights. A *image.Gray already at the origin is returned as is.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
		return gray
	}
	// 透明像素按白底合成，与相机照片的白纸效果一致
	draw.Draw(gray, gray.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Over)
	return gray
}

// Flatten composites src over an opaque background of color bg and returns
// an RGBA image with every alpha value at 255.
func Flatten(src image.Image, bg color.Color) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Over)
	return out
}

// EncodePNG writes img losslessly. Fully opaque images are stored as RGB.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return nil
}

// WriteFileAtomic writes data to path through a temporary file in the same
// directory, so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte) error {
	return WriteAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteAtomic streams write into a temporary file next to path and renames
// it into place once write and close both succeed.
func WriteAtomic(path string, write func(w io.Writer) error) error {
	tmp, err := CreateTemp(path)
	if err != nil {
		return err
	}
	if err := tmp.Write(write); err != nil {
		tmp.Discard()
		return err
	}
	return tmp.Commit()
}

// TempFile is an output staged next to its final path.
type TempFile struct {
	Path string // final destination
	f    *os.File
	done bool
}

// CreateTemp stages a new file for path. The parent directory is created.
func CreateTemp(path string) (*TempFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("创建临时文件失败: %w", err)
	}
	return &TempFile{Path: path, f: f}, nil
}

// Write runs fn against a buffered writer on the staged file.
func (t *TempFile) Write(fn func(w io.Writer) error) error {
	bw := bufio.NewWriter(t.f)
	if err := fn(bw); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", t.Path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", t.Path, err)
	}
	return nil
}

// Commit closes the staged file and renames it onto Path.
func (t *TempFile) Commit() error {
	if t.done {
		return fmt.Errorf("%s 已提交或已丢弃", t.Path)
	}
	t.done = true
	name := t.f.Name()
	if err := t.f.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("关闭 %s 失败: %w", t.Path, err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return fmt.Errorf("设置 %s 权限失败: %w", t.Path, err)
	}
	if err := os.Rename(name, t.Path); err != nil {
		os.Remove(name)
		return fmt.Errorf("写入 %s 失败: %w", t.Path, err)
	}
	return nil
}

// Discard closes and removes the staged file. It is a no-op after Commit.
func (t *TempFile) Discard() {
	if t.done {
		return
	}
	t.done = true
	name := t.f.Name()
	t.f.Close()
	os.Remove(name)
}

// Package asset reads and writes atlas images.
package asset

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// Format is an image file format for exported atlases.
type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// ParseFormat accepts "png" or "webp" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPNG, FormatWebP:
		return f, nil
	default:
		return "", fmt.Errorf("unknown image format %q", s)
	}
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Save writes img to path in the given format, creating parent directories.
func Save(path string, img image.Image, format Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("asset: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("asset: create %s: %w", path, err)
	}
	defer f.Close()

	if err := encode(f, img, format); err != nil {
		return fmt.Errorf("asset: encode %s: %w", path, err)
	}
	return f.Close()
}

// SavePNG writes img to path as PNG.
func SavePNG(path string, img image.Image) error {
	return Save(path, img, FormatPNG)
}

// SaveWebP writes img to path as lossless WebP.
func SaveWebP(path string, img image.Image) error {
	return Save(path, img, FormatWebP)
}

// SavePreview writes img upscaled by an integer factor with
// nearest-neighbor sampling, so each atlas pixel stays a crisp square.
func SavePreview(path string, img image.Image, scale int, format Format) error {
	return Save(path, Upscale(img, scale), format)
}

// Upscale returns img enlarged by scale using nearest-neighbor sampling.
// Scales below 2 return an unscaled copy.
func Upscale(img image.Image, scale int) *image.RGBA {
	scale = max(scale, 1)
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatWebP:
		return nativewebp.Encode(w, img, nil)
	default:
		return fmt.Errorf("unknown image format %q", format)
	}
}

// Load decodes a PNG, JPEG, WebP or TGA image, picking the decoder by file
// extension. TGA has no signature, so sniffing is only the fallback for
// unknown extensions.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asset: open %s: %w", path, err)
	}
	defer f.Close()

	var img image.Image
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		img, err = png.Decode(f)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(f)
	case ".webp":
		img, err = webp.Decode(f)
	case ".tga":
		img, err = tga.Decode(f)
	default:
		img, _, err = image.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("asset: decode %s: %w", path, err)
	}
	return img, nil
}

package asset

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(3, 3, color.RGBA{0, 0, 255, 255})
	img.SetRGBA(7, 0, color.RGBA{10, 20, 30, 255})
	return img
}

func assertSamePixels(t *testing.T, want, got image.Image) {
	t.Helper()
	if got.Bounds().Dx() != want.Bounds().Dx() || got.Bounds().Dy() != want.Bounds().Dy() {
		t.Fatalf("size = %v, want %v", got.Bounds(), want.Bounds())
	}
	wb, gb := want.Bounds(), got.Bounds()
	for y := range wb.Dy() {
		for x := range wb.Dx() {
			wr, wg, wbl, wa := want.At(wb.Min.X+x, wb.Min.Y+y).RGBA()
			gr, gg, gbl, ga := got.At(gb.Min.X+x, gb.Min.Y+y).RGBA()
			if wr>>8 != gr>>8 || wg>>8 != gg>>8 || wbl>>8 != gbl>>8 || wa>>8 != ga>>8 {
				t.Fatalf("pixel (%d,%d) = (%d,%d,%d,%d), want (%d,%d,%d,%d)",
					x, y, gr>>8, gg>>8, gbl>>8, ga>>8, wr>>8, wg>>8, wbl>>8, wa>>8)
			}
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatPNG, FormatWebP} {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "atlas"+format.Ext())
			src := testImage()

			if err := Save(path, src, format); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			assertSamePixels(t, src, got)
		})
	}
}

func TestSavePreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.png")
	if err := SavePreview(path, testImage(), 4, FormatPNG); err != nil {
		t.Fatalf("SavePreview: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Bounds().Dx() != 32 || got.Bounds().Dy() != 16 {
		t.Fatalf("preview size = %v, want 32x16", got.Bounds())
	}
	// Every pixel of the 4x4 block for atlas pixel (3,3) is blue.
	for y := 12; y < 16; y++ {
		for x := 12; x < 16; x++ {
			r, g, b, _ := got.At(x, y).RGBA()
			if r != 0 || g != 0 || b>>8 != 255 {
				t.Fatalf("preview pixel (%d,%d) is not blue", x, y)
			}
		}
	}
}

func TestUpscaleMinimum(t *testing.T) {
	src := testImage()
	for _, scale := range []int{0, 1, -3} {
		assertSamePixels(t, src, Upscale(src, scale))
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"WebP", FormatWebP, false},
		{"gif", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tc.in, got, err)
		}
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

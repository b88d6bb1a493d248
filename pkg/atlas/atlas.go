package atlas

import (
	"image"
	"image/color"
)

// Atlas is a row-major RGBA pixel buffer. It implements image.Image so it
// can be handed directly to encoders.
type Atlas struct {
	Width  int
	Height int
	Pixels []color.RGBA

	fill FillMode
}

// New creates a zeroed width x height atlas.
func New(width, height int) *Atlas {
	return &Atlas{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}
}

// FromImage copies img into a new atlas.
func FromImage(img image.Image) *Atlas {
	b := img.Bounds()
	a := New(b.Dx(), b.Dy())
	for y := range a.Height {
		for x := range a.Width {
			a.Pixels[y*a.Width+x] = color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
		}
	}
	return a
}

// InBounds reports whether (x, y) is a valid pixel.
func (a *Atlas) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < a.Width && y < a.Height
}

// RGBAAt returns the pixel at (x, y), or transparent black out of bounds.
func (a *Atlas) RGBAAt(x, y int) color.RGBA {
	if !a.InBounds(x, y) {
		return color.RGBA{}
	}
	return a.Pixels[y*a.Width+x]
}

// SetRGBA sets the pixel at (x, y). Out-of-bounds writes are ignored.
func (a *Atlas) SetRGBA(x, y int, c color.RGBA) {
	if !a.InBounds(x, y) {
		return
	}
	a.Pixels[y*a.Width+x] = c
}

// FillRect paints r clipped to the atlas and returns the clipped rectangle.
func (a *Atlas) FillRect(r image.Rectangle, c color.RGBA) image.Rectangle {
	r = r.Intersect(a.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := a.Pixels[y*a.Width : (y+1)*a.Width]
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = c
		}
	}
	return r
}

// Clone returns a deep copy of the atlas.
func (a *Atlas) Clone() *Atlas {
	c := *a
	c.Pixels = make([]color.RGBA, len(a.Pixels))
	copy(c.Pixels, a.Pixels)
	return &c
}

// ToImage copies the atlas into an *image.RGBA.
func (a *Atlas) ToImage() *image.RGBA {
	img := image.NewRGBA(a.Bounds())
	for i, c := range a.Pixels {
		img.Pix[i*4+0] = c.R
		img.Pix[i*4+1] = c.G
		img.Pix[i*4+2] = c.B
		img.Pix[i*4+3] = c.A
	}
	return img
}

func (a *Atlas) ColorModel() color.Model { return color.RGBAModel }

func (a *Atlas) Bounds() image.Rectangle { return image.Rect(0, 0, a.Width, a.Height) }

func (a *Atlas) At(x, y int) color.Color { return a.RGBAAt(x, y) }

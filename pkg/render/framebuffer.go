package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Framebuffer is a 2D array of pixels that can be rendered to the terminal.
// We use double vertical resolution by using half-block characters (▀▄).
type Framebuffer struct {
	Width  int          // Width in "pixels" (same as terminal columns)
	Height int          // Height in "pixels" (2x terminal rows due to half-blocks)
	Pixels []color.RGBA // Row-major pixel data
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
// Height should be 2x the desired terminal rows for half-block rendering.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}
}

// Resize reallocates the pixel buffer if the dimensions changed.
func (fb *Framebuffer) Resize(width, height int) {
	if fb.Width == width && fb.Height == height {
		return
	}
	fb.Width = width
	fb.Height = height
	fb.Pixels = make([]color.RGBA, width*height)
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// SetPixel sets a pixel at (x, y) to the given color.
// Bounds checking is performed.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// DrawLine draws a line from (x0, y0) to (x1, y1) using Bresenham's algorithm.
func (fb *Framebuffer) DrawLine(x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		fb.SetPixel(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawRect draws a filled rectangle.
func (fb *Framebuffer) DrawRect(x, y, w, h int, c color.RGBA) {
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			fb.SetPixel(px, py, c)
		}
	}
}

// DrawRectOutline draws a rectangle outline.
func (fb *Framebuffer) DrawRectOutline(x, y, w, h int, c color.RGBA) {
	// Top and bottom
	for px := x; px < x+w; px++ {
		fb.SetPixel(px, y, c)
		fb.SetPixel(px, y+h-1, c)
	}
	// Left and right
	for py := y; py < y+h; py++ {
		fb.SetPixel(x, py, c)
		fb.SetPixel(x+w-1, py, c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := range fb.Height {
		for x := range fb.Width {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// FitRect returns the largest rectangle with the aspect ratio of a
// width x height image that fits centered inside the framebuffer.
func (fb *Framebuffer) FitRect(width, height int) image.Rectangle {
	if width <= 0 || height <= 0 || fb.Width <= 0 || fb.Height <= 0 {
		return image.Rectangle{}
	}
	scale := min(float64(fb.Width)/float64(width), float64(fb.Height)/float64(height))
	w := max(int(float64(width)*scale), 1)
	h := max(int(float64(height)*scale), 1)
	x := (fb.Width - w) / 2
	y := (fb.Height - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

// ImagePoint maps framebuffer position (x, y) to a pixel of a width x
// height image drawn with DrawImageFit. ok is false outside the drawn area.
func (fb *Framebuffer) ImagePoint(width, height int, x, y float64) (p image.Point, ok bool) {
	r := fb.FitRect(width, height)
	if r.Empty() || x < float64(r.Min.X) || y < float64(r.Min.Y) ||
		x >= float64(r.Max.X) || y >= float64(r.Max.Y) {
		return image.Point{}, false
	}
	px := int((x - float64(r.Min.X)) * float64(width) / float64(r.Dx()))
	py := int((y - float64(r.Min.Y)) * float64(height) / float64(r.Dy()))
	return image.Pt(min(px, width-1), min(py, height-1)), true
}

// DrawImageFit draws img scaled with nearest-neighbor sampling into the
// centered rectangle returned by FitRect, and returns that rectangle.
// Transparent source pixels leave the framebuffer untouched.
func (fb *Framebuffer) DrawImageFit(img image.Image) image.Rectangle {
	b := img.Bounds()
	dst := fb.FitRect(b.Dx(), b.Dy())
	if dst.Empty() {
		return dst
	}

	scaled := image.NewRGBA(image.Rect(0, 0, dst.Dx(), dst.Dy()))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)

	for y := range dst.Dy() {
		for x := range dst.Dx() {
			c := scaled.RGBAAt(x, y)
			if c.A == 0 {
				continue
			}
			fb.SetPixel(dst.Min.X+x, dst.Min.Y+y, c)
		}
	}
	return dst
}

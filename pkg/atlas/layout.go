// Package atlas packs the triangles of a mesh into a shared raster. Every
// triangle owns a square cell of Resolution x Resolution pixels; the lower
// triangular half of the cell carries the triangle's colors and its three
// corner pixels anchor the vertex texture coordinates.
package atlas

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/taigrr/meshpaint/pkg/math3d"
)

// ErrConfiguration is returned when packing parameters cannot produce a
// usable atlas.
var ErrConfiguration = errors.New("invalid atlas configuration")

// Layout maps triangles to cells and atlas pixels to normalized UVs.
// Cells are laid out row-major, CellsPerRow to a row.
type Layout struct {
	Triangles   int
	Resolution  int
	CellsPerRow int
	Width       int
	Height      int
}

// NewLayout computes the atlas dimensions for the given number of triangles.
func NewLayout(triangles, resolution, cellsPerRow int) (Layout, error) {
	switch {
	case resolution <= 0:
		return Layout{}, fmt.Errorf("resolution %d: %w", resolution, ErrConfiguration)
	case cellsPerRow <= 0:
		return Layout{}, fmt.Errorf("cells per row %d: %w", cellsPerRow, ErrConfiguration)
	case triangles <= 0:
		return Layout{}, fmt.Errorf("no triangles: %w", ErrConfiguration)
	}

	rows := (triangles + cellsPerRow - 1) / cellsPerRow
	l := Layout{
		Triangles:   triangles,
		Resolution:  resolution,
		CellsPerRow: cellsPerRow,
		Width:       min(triangles, cellsPerRow) * resolution,
		Height:      rows * resolution,
	}

	// UVs are normalized by (Width-1, Height-1).
	if l.Width == 1 || l.Height == 1 {
		return Layout{}, fmt.Errorf("atlas %dx%d cannot be normalized: %w", l.Width, l.Height, ErrConfiguration)
	}
	return l, nil
}

// Bounds returns the atlas rectangle.
func (l Layout) Bounds() image.Rectangle {
	return image.Rect(0, 0, l.Width, l.Height)
}

// Contains reports whether pixel (x, y) lies inside the atlas.
func (l Layout) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < l.Width && y < l.Height
}

// CellOrigin returns the top-left pixel of the cell owned by triangle tri.
func (l Layout) CellOrigin(tri int) (x, y int) {
	return (tri % l.CellsPerRow) * l.Resolution, (tri / l.CellsPerRow) * l.Resolution
}

// Cell returns the pixel rectangle of triangle tri's cell.
func (l Layout) Cell(tri int) image.Rectangle {
	x, y := l.CellOrigin(tri)
	return image.Rect(x, y, x+l.Resolution, y+l.Resolution)
}

// TriangleAt returns the triangle whose cell contains pixel (x, y). ok is
// false outside the atlas and in the unused cells after the last triangle.
func (l Layout) TriangleAt(x, y int) (tri int, ok bool) {
	if !l.Contains(x, y) {
		return 0, false
	}
	tri = (y/l.Resolution)*l.CellsPerRow + x/l.Resolution
	if tri >= l.Triangles {
		return 0, false
	}
	return tri, true
}

// CellCoord resolves pixel (x, y) to its triangle and intra-cell column j
// and row i. Pixels with j <= i belong to the triangle's half of the cell.
func (l Layout) CellCoord(x, y int) (tri, j, i int, ok bool) {
	tri, ok = l.TriangleAt(x, y)
	if !ok {
		return 0, 0, 0, false
	}
	return tri, x % l.Resolution, y % l.Resolution, true
}

// Corners returns the pixels of corners A, B and C of triangle tri's cell.
// They correspond to the face's first, second and third vertex.
func (l Layout) Corners(tri int) [3]image.Point {
	x, y := l.CellOrigin(tri)
	last := l.Resolution - 1
	return [3]image.Point{
		{X: x, Y: y},
		{X: x, Y: y + last},
		{X: x + last, Y: y + last},
	}
}

// BleedPixel returns the mirror of corner B across the cell diagonal. It
// holds the mean of corners A and C so that filtering across the diagonal
// edge picks up a plausible color.
func (l Layout) BleedPixel(tri int) image.Point {
	x, y := l.CellOrigin(tri)
	return image.Point{X: x + l.Resolution - 1, Y: y}
}

// Normalize converts an absolute pixel position to UV space.
func (l Layout) Normalize(p math3d.Vec2) math3d.Vec2 {
	return math3d.V2(p.X/float64(l.Width-1), p.Y/float64(l.Height-1))
}

// Denormalize converts a UV coordinate back to an absolute pixel position.
func (l Layout) Denormalize(uv math3d.Vec2) math3d.Vec2 {
	return math3d.V2(uv.X*float64(l.Width-1), uv.Y*float64(l.Height-1))
}

// PixelAt returns the atlas pixel nearest to uv, clamped to the atlas.
func (l Layout) PixelAt(uv math3d.Vec2) (x, y int) {
	p := l.Denormalize(uv).Round()
	x = int(math.Max(0, math.Min(p.X, float64(l.Width-1))))
	y = int(math.Max(0, math.Min(p.Y, float64(l.Height-1))))
	return x, y
}

// UV returns the normalized coordinate of pixel pt.
func (l Layout) UV(pt image.Point) math3d.Vec2 {
	return l.Normalize(math3d.V2(float64(pt.X), float64(pt.Y)))
}

package atlas

import (
	"fmt"
	"image/color"

	"github.com/taigrr/meshpaint/pkg/math3d"
	"github.com/taigrr/meshpaint/pkg/models"
)

// FillMode selects which pixels of a cell a bake writes.
type FillMode int

const (
	// FillSparse writes only the three corners and the bleed pixel.
	FillSparse FillMode = iota
	// FillInterior also blends the corner colors over the triangular half.
	FillInterior
)

func (f FillMode) String() string {
	switch f {
	case FillSparse:
		return "sparse"
	case FillInterior:
		return "interior"
	default:
		return fmt.Sprintf("FillMode(%d)", int(f))
	}
}

// Options configures a bake.
type Options struct {
	Resolution  int
	CellsPerRow int
	Fill        FillMode
}

// DefaultOptions returns 3-pixel cells, 100 to a row, sparse fill.
func DefaultOptions() Options {
	return Options{
		Resolution:  3,
		CellsPerRow: 100,
		Fill:        FillSparse,
	}
}

// Bake packs every face of mesh into its own cell and returns the atlas and
// one UV per mesh vertex. Corner A of face t is Faces[t].V[0], B is V[1] and
// C is V[2]. Vertices referenced by no face keep a zero UV.
//
// The mesh is expected to be duplicated (see models.Duplicate); a vertex
// shared between faces ends up with the UV of the last face that uses it.
// All validation happens before anything is allocated.
func Bake(mesh *models.Mesh, opts Options) (*Atlas, []math3d.Vec2, error) {
	layout, err := NewLayout(len(mesh.Faces), opts.Resolution, opts.CellsPerRow)
	if err != nil {
		return nil, nil, err
	}
	if err := checkFaces(mesh); err != nil {
		return nil, nil, err
	}

	a := New(layout.Width, layout.Height)
	a.fill = opts.Fill
	uvs := make([]math3d.Vec2, len(mesh.Vertices))

	for t, f := range mesh.Faces {
		a.bakeCell(layout, t, faceColors(mesh, f))

		corners := layout.Corners(t)
		for k, idx := range f.V {
			uvs[idx] = layout.UV(corners[k])
		}
	}

	return a, uvs, nil
}

// RefreshTriangle re-bakes the cell of triangle tri from the mesh's current
// vertex colors, using the fill mode of the bake that produced the atlas.
// The cell ends up exactly as a full Bake would leave it.
func (a *Atlas) RefreshTriangle(mesh *models.Mesh, layout Layout, tri int) error {
	if tri < 0 || tri >= len(mesh.Faces) || tri >= layout.Triangles {
		return fmt.Errorf("triangle %d out of range: %w", tri, ErrConfiguration)
	}
	if layout.Width != a.Width || layout.Height != a.Height {
		return fmt.Errorf("layout %dx%d does not match atlas %dx%d: %w",
			layout.Width, layout.Height, a.Width, a.Height, ErrConfiguration)
	}

	f := mesh.Faces[tri]
	for _, idx := range f.V {
		if idx < 0 || idx >= len(mesh.Vertices) {
			return fmt.Errorf("triangle %d: vertex %d: %w", tri, idx, ErrConfiguration)
		}
	}

	a.FillRect(layout.Cell(tri), color.RGBA{})
	a.bakeCell(layout, tri, faceColors(mesh, f))
	return nil
}

func checkFaces(mesh *models.Mesh) error {
	for t, f := range mesh.Faces {
		for _, idx := range f.V {
			if idx < 0 || idx >= len(mesh.Vertices) {
				return fmt.Errorf("face %d: vertex %d: %w", t, idx, ErrConfiguration)
			}
		}
	}
	return nil
}

func faceColors(mesh *models.Mesh, f models.Face) [3]color.RGBA {
	return [3]color.RGBA{
		mesh.Vertices[f.V[0]].Color,
		mesh.Vertices[f.V[1]].Color,
		mesh.Vertices[f.V[2]].Color,
	}
}

// bakeCell writes one triangle's pixels. Corners are written in the order
// A, B, bleed, C so that at resolution 1, where all four coincide, C wins.
func (a *Atlas) bakeCell(layout Layout, tri int, c [3]color.RGBA) {
	if a.fill == FillInterior && layout.Resolution > 2 {
		a.fillInterior(layout, tri, c)
	}

	corners := layout.Corners(tri)
	bleed := layout.BleedPixel(tri)

	a.SetRGBA(corners[0].X, corners[0].Y, c[0])
	a.SetRGBA(corners[1].X, corners[1].Y, c[1])
	a.SetRGBA(bleed.X, bleed.Y, mean(c[0], c[2]))
	a.SetRGBA(corners[2].X, corners[2].Y, c[2])
}

// fillInterior blends the corner colors barycentrically over the pixels
// with j <= i. For n = Resolution-1 the weights at (j, i) are
// A = 1-i/n, B = (i-j)/n and C = j/n.
func (a *Atlas) fillInterior(layout Layout, tri int, c [3]color.RGBA) {
	ox, oy := layout.CellOrigin(tri)
	n := float64(layout.Resolution - 1)

	for i := range layout.Resolution {
		for j := 0; j <= i; j++ {
			wa := 1 - float64(i)/n
			wb := float64(i-j) / n
			wc := float64(j) / n
			a.SetRGBA(ox+j, oy+i, blend(c, wa, wb, wc))
		}
	}
}

func mean(p, q color.RGBA) color.RGBA {
	avg := func(x, y uint8) uint8 { return uint8((uint16(x) + uint16(y) + 1) / 2) }
	return color.RGBA{avg(p.R, q.R), avg(p.G, q.G), avg(p.B, q.B), avg(p.A, q.A)}
}

func blend(c [3]color.RGBA, wa, wb, wc float64) color.RGBA {
	mix := func(x, y, z uint8) uint8 {
		v := wa*float64(x) + wb*float64(y) + wc*float64(z)
		return uint8(min(255, max(0, v+0.5)))
	}
	return color.RGBA{
		mix(c[0].R, c[1].R, c[2].R),
		mix(c[0].G, c[1].G, c[2].G),
		mix(c[0].B, c[1].B, c[2].B),
		mix(c[0].A, c[1].A, c[2].A),
	}
}

package atlas

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/taigrr/meshpaint/pkg/math3d"
	"github.com/taigrr/meshpaint/pkg/models"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	green = color.RGBA{0, 255, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
)

// paintedGrid returns a grid whose face corners are red, green, blue.
func paintedGrid(cols, rows int) *models.Mesh {
	m := models.NewGrid(cols, rows)
	for t := range m.Faces {
		m.Vertices[m.Faces[t].V[0]].Color = red
		m.Vertices[m.Faces[t].V[1]].Color = green
		m.Vertices[m.Faces[t].V[2]].Color = blue
	}
	return m
}

func TestBakeGrid2x2(t *testing.T) {
	mesh := paintedGrid(2, 2)
	a, uvs, err := Bake(mesh, Options{Resolution: 4, CellsPerRow: 100})
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}

	if a.Width != 8 || a.Height != 4 {
		t.Fatalf("atlas = %dx%d, want 8x4", a.Width, a.Height)
	}

	wantUV := []math3d.Vec2{
		math3d.V2(0, 0), math3d.V2(0, 1), math3d.V2(3.0/7, 1),
		math3d.V2(4.0/7, 0), math3d.V2(4.0/7, 1), math3d.V2(1, 1),
	}
	for i, want := range wantUV {
		if math.Abs(uvs[i].X-want.X) > 1e-9 || math.Abs(uvs[i].Y-want.Y) > 1e-9 {
			t.Errorf("uv[%d] = %v, want %v", i, uvs[i], want)
		}
	}

	pixels := map[image.Point]color.RGBA{
		{0, 0}: red, {0, 3}: green, {3, 3}: blue,
		{4, 0}: red, {4, 3}: green, {7, 3}: blue,
		{3, 0}: mean(red, blue), {7, 0}: mean(red, blue),
		{1, 1}: {}, {1, 2}: {}, {5, 2}: {},
	}
	for p, want := range pixels {
		if got := a.RGBAAt(p.X, p.Y); got != want {
			t.Errorf("pixel %v = %v, want %v", p, got, want)
		}
	}
}

func TestBakeCornerConsistency(t *testing.T) {
	mesh := models.NewGrid(4, 3)
	for i := range mesh.Vertices {
		mesh.Vertices[i].Color = color.RGBA{uint8(i * 7), uint8(i * 3), uint8(255 - i), 255}
	}

	for _, fill := range []FillMode{FillSparse, FillInterior} {
		t.Run(fill.String(), func(t *testing.T) {
			a, uvs, err := Bake(mesh, Options{Resolution: 5, CellsPerRow: 4, Fill: fill})
			if err != nil {
				t.Fatalf("Bake: %v", err)
			}
			layout, _ := NewLayout(mesh.TriangleCount(), 5, 4)

			for ti, f := range mesh.Faces {
				for k, idx := range f.V {
					x, y := layout.PixelAt(uvs[idx])
					if got := a.RGBAAt(x, y); got != mesh.Vertices[idx].Color {
						t.Errorf("face %d corner %d pixel (%d,%d) = %v, want %v",
							ti, k, x, y, got, mesh.Vertices[idx].Color)
					}
				}
			}
		})
	}
}

func TestBakeIdempotent(t *testing.T) {
	mesh := paintedGrid(3, 3)
	opts := Options{Resolution: 3, CellsPerRow: 3, Fill: FillInterior}

	a1, uv1, err := Bake(mesh, opts)
	if err != nil {
		t.Fatal(err)
	}
	a2, uv2, err := Bake(mesh, opts)
	if err != nil {
		t.Fatal(err)
	}

	for i := range a1.Pixels {
		if a1.Pixels[i] != a2.Pixels[i] {
			t.Fatalf("pixel %d differs between bakes", i)
		}
	}
	for i := range uv1 {
		if uv1[i] != uv2[i] {
			t.Fatalf("uv %d differs between bakes", i)
		}
	}
}

func TestBakeResolutionOne(t *testing.T) {
	mesh := paintedGrid(3, 3) // 8 triangles
	a, _, err := Bake(mesh, Options{Resolution: 1, CellsPerRow: 4})
	if err != nil {
		t.Fatalf("Bake: %v", err)
	}
	if a.Width != 4 || a.Height != 2 {
		t.Fatalf("atlas = %dx%d, want 4x2", a.Width, a.Height)
	}
	// All corners share the single pixel; the last write is corner C.
	for i, c := range a.Pixels {
		if c != blue {
			t.Errorf("pixel %d = %v, want %v", i, c, blue)
		}
	}
}

func TestBakeFillInterior(t *testing.T) {
	mesh := paintedGrid(2, 2)
	a, _, err := Bake(mesh, Options{Resolution: 3, CellsPerRow: 100, Fill: FillInterior})
	if err != nil {
		t.Fatal(err)
	}

	// (j=0, i=1) is halfway between A and B.
	if got, want := a.RGBAAt(0, 1), (color.RGBA{128, 128, 0, 255}); got != want {
		t.Errorf("edge AB midpoint = %v, want %v", got, want)
	}
	// (j=1, i=2) is halfway between B and C.
	if got, want := a.RGBAAt(1, 2), (color.RGBA{0, 128, 128, 255}); got != want {
		t.Errorf("edge BC midpoint = %v, want %v", got, want)
	}
	// Upper half stays empty apart from the bleed pixel.
	if got := a.RGBAAt(1, 0); got != (color.RGBA{}) {
		t.Errorf("upper half pixel = %v, want empty", got)
	}
	if got := a.RGBAAt(2, 0); got != mean(red, blue) {
		t.Errorf("bleed pixel = %v, want %v", got, mean(red, blue))
	}
}

func TestBakeErrors(t *testing.T) {
	broken := paintedGrid(2, 2)
	broken.Faces[1].V[2] = 99

	tests := []struct {
		name string
		mesh *models.Mesh
		opts Options
	}{
		{"zero resolution", paintedGrid(2, 2), Options{Resolution: 0, CellsPerRow: 100}},
		{"zero cells per row", paintedGrid(2, 2), Options{Resolution: 3, CellsPerRow: 0}},
		{"no faces", models.NewMesh("empty"), DefaultOptions()},
		{"bad face index", broken, DefaultOptions()},
		{"height one", paintedGrid(2, 2), Options{Resolution: 1, CellsPerRow: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, uvs, err := Bake(tt.mesh, tt.opts)
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("err = %v, want ErrConfiguration", err)
			}
			if a != nil || uvs != nil {
				t.Error("failed bake returned an atlas")
			}
		})
	}
}

func TestRefreshTriangleMatchesBake(t *testing.T) {
	for _, fill := range []FillMode{FillSparse, FillInterior} {
		t.Run(fill.String(), func(t *testing.T) {
			mesh := paintedGrid(3, 2)
			opts := Options{Resolution: 4, CellsPerRow: 2, Fill: fill}
			a, _, err := Bake(mesh, opts)
			if err != nil {
				t.Fatal(err)
			}
			layout, _ := NewLayout(mesh.TriangleCount(), opts.Resolution, opts.CellsPerRow)

			mesh.Vertices[mesh.Faces[2].V[1]].Color = color.RGBA{9, 9, 9, 255}
			a.FillRect(layout.Cell(2), color.RGBA{1, 1, 1, 1})
			if err := a.RefreshTriangle(mesh, layout, 2); err != nil {
				t.Fatalf("RefreshTriangle: %v", err)
			}

			want, _, _ := Bake(mesh, opts)
			for i := range want.Pixels {
				if a.Pixels[i] != want.Pixels[i] {
					t.Fatalf("pixel (%d,%d) = %v, want %v",
						i%a.Width, i/a.Width, a.Pixels[i], want.Pixels[i])
				}
			}
		})
	}
}

func TestRefreshTriangleOutOfRange(t *testing.T) {
	mesh := paintedGrid(2, 2)
	a, _, _ := Bake(mesh, Options{Resolution: 4, CellsPerRow: 100})
	layout, _ := NewLayout(2, 4, 100)

	if err := a.RefreshTriangle(mesh, layout, 2); !errors.Is(err, ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestAtlasFillRectClips(t *testing.T) {
	a := New(8, 4)
	got := a.FillRect(image.Rect(6, 2, 9, 5), red)
	if got != image.Rect(6, 2, 8, 4) {
		t.Errorf("FillRect region = %v, want (6,2)-(8,4)", got)
	}
	if a.RGBAAt(7, 3) != red || a.RGBAAt(5, 3) != (color.RGBA{}) {
		t.Error("FillRect painted the wrong pixels")
	}
}

func TestAtlasImageRoundTrip(t *testing.T) {
	a, _, _ := Bake(paintedGrid(2, 2), Options{Resolution: 4, CellsPerRow: 100})
	b := FromImage(a.ToImage())
	if b.Width != a.Width || b.Height != a.Height {
		t.Fatalf("size = %dx%d, want %dx%d", b.Width, b.Height, a.Width, a.Height)
	}
	for i := range a.Pixels {
		if a.Pixels[i] != b.Pixels[i] {
			t.Fatalf("pixel %d = %v, want %v", i, b.Pixels[i], a.Pixels[i])
		}
	}
}

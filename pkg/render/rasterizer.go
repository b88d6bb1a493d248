// Package render provides the software rasterizer meshpaint draws with:
// a perspective camera, a depth-buffered triangle rasterizer and a
// half-block terminal framebuffer.
package render

import (
	"math"

	"github.com/taigrr/meshpaint/pkg/math3d"
)

// Vertex represents a vertex with all attributes needed for rasterization.
type Vertex struct {
	Position math3d.Vec3 // World position
	Normal   math3d.Vec3 // Normal vector (for lighting)
	UV       math3d.Vec2 // Texture coordinates
	Color    Color       // Vertex color
}

// Triangle represents a triangle to be rasterized.
type Triangle struct {
	V [3]Vertex
}

// Rasterizer handles software triangle rasterization.
type Rasterizer struct {
	camera                 *Camera
	fb                     *Framebuffer
	zbuffer                []float64 // Depth buffer (1D array, row-major)
	DisableBackfaceCulling bool      // If true, render both sides of triangles
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{
		camera: camera,
		fb:     fb,
	}
	r.Resize()
	return r
}

// Resize resizes the rasterizer's buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth clears the Z-buffer (call before each frame).
func (r *Rasterizer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// getDepth returns the depth at (x, y).
func (r *Rasterizer) getDepth(x, y int) float64 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return math.MaxFloat64
	}
	return r.zbuffer[y*r.Width()+x]
}

// setDepth sets the depth at (x, y).
func (r *Rasterizer) setDepth(x, y int, z float64) {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return
	}
	r.zbuffer[y*r.Width()+x] = z
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y  float64 // Screen coordinates
	Z     float64 // Depth (for Z-buffer)
	W     float64 // W coordinate (for perspective-correct interpolation)
	Color Color
	UV    math3d.Vec2
}

// project moves a triangle to screen space. ok is false when the triangle
// is entirely behind the camera or culled as back-facing.
func (r *Rasterizer) project(tri Triangle) (sv [3]screenVertex, ok bool) {
	allBehind := true
	viewProj := r.camera.ViewProjectionMatrix()

	for i := range 3 {
		clipPos := viewProj.MulVec4(math3d.V4FromV3(tri.V[i].Position, 1))
		if clipPos.W > 0 {
			allBehind = false
		}

		ndc := clipPos.PerspectiveDivide()
		sv[i].X = (ndc.X + 1) * 0.5 * float64(r.Width())
		sv[i].Y = (1 - ndc.Y) * 0.5 * float64(r.Height()) // Y flipped
		sv[i].Z = ndc.Z
		sv[i].W = clipPos.W
		sv[i].Color = tri.V[i].Color
		sv[i].UV = tri.V[i].UV
	}

	if allBehind {
		return sv, false
	}

	// Backface culling (using screen-space winding)
	if !r.DisableBackfaceCulling {
		edge1 := math3d.V2(sv[1].X-sv[0].X, sv[1].Y-sv[0].Y)
		edge2 := math3d.V2(sv[2].X-sv[0].X, sv[2].Y-sv[0].Y)
		if edge1.X*edge2.Y-edge1.Y*edge2.X < 0 {
			return sv, false
		}
	}
	return sv, true
}

// faceIntensity returns ambient plus diffuse lighting for a triangle. Both
// sides are lit the same so painted sheets read from behind.
func faceIntensity(tri Triangle, lightDir math3d.Vec3) float64 {
	e1 := tri.V[1].Position.Sub(tri.V[0].Position)
	e2 := tri.V[2].Position.Sub(tri.V[0].Position)
	faceNormal := e1.Cross(e2).Normalize()
	diffuse := math.Abs(faceNormal.Dot(lightDir.Normalize()))
	return 0.35 + 0.65*diffuse
}

// raster walks the pixels covered by sv in depth order and calls shade with
// the barycentric weights of each visible pixel.
func (r *Rasterizer) raster(sv [3]screenVertex, shade func(x, y int, bc math3d.Vec3) (Color, bool)) {
	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(r.Width()-1), math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(r.Height()-1), math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5

			bc := barycentric(
				sv[0].X, sv[0].Y,
				sv[1].X, sv[1].Y,
				sv[2].X, sv[2].Y,
				px, py,
			)
			if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				continue
			}

			z := bc.X*sv[0].Z + bc.Y*sv[1].Z + bc.Z*sv[2].Z
			if z >= r.getDepth(x, y) {
				continue
			}

			c, ok := shade(x, y, bc)
			if !ok {
				continue
			}
			r.setDepth(x, y, z)
			r.fb.SetPixel(x, y, c)
		}
	}
}

// DrawTriangle rasterizes a triangle with interpolated vertex colors.
func (r *Rasterizer) DrawTriangle(tri Triangle, lightDir math3d.Vec3) {
	sv, ok := r.project(tri)
	if !ok {
		return
	}
	intensity := faceIntensity(tri, lightDir)

	r.raster(sv, func(_, _ int, bc math3d.Vec3) (Color, bool) {
		c := interpolateColor3(sv[0].Color, sv[1].Color, sv[2].Color, bc)
		return MultiplyColor(c, intensity), true
	})
}

// DrawTriangleTextured rasterizes a textured triangle with perspective-correct UV interpolation.
func (r *Rasterizer) DrawTriangleTextured(tri Triangle, tex *Texture, lightDir math3d.Vec3) {
	sv, ok := r.project(tri)
	if !ok {
		return
	}
	intensity := faceIntensity(tri, lightDir)

	// Precompute perspective-correct interpolation factors (1/w for each vertex)
	var invW [3]float64
	for i := range 3 {
		if sv[i].W != 0 {
			invW[i] = 1.0 / sv[i].W
		}
	}

	r.raster(sv, func(_, _ int, bc math3d.Vec3) (Color, bool) {
		// Interpolate UV/W and 1/W, then divide to get correct UV
		w0, w1, w2 := bc.X*invW[0], bc.Y*invW[1], bc.Z*invW[2]
		oneOverW := w0 + w1 + w2
		if oneOverW == 0 {
			return Color{}, false
		}

		u := (w0*sv[0].UV.X + w1*sv[1].UV.X + w2*sv[2].UV.X) / oneOverW
		v := (w0*sv[0].UV.Y + w1*sv[1].UV.Y + w2*sv[2].UV.Y) / oneOverW
		return MultiplyColor(tex.Sample(u, v), intensity), true
	})
}

// barycentric calculates barycentric coordinates for point (px, py) in triangle.
func barycentric(x0, y0, x1, y1, x2, y2, px, py float64) math3d.Vec3 {
	v0x, v0y := x2-x0, y2-y0
	v1x, v1y := x1-x0, y1-y0
	v2x, v2y := px-x0, py-y0

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	invDenom := 1.0 / (dot00*dot11 - dot01*dot01)
	u := (dot11*dot02 - dot01*dot12) * invDenom
	v := (dot00*dot12 - dot01*dot02) * invDenom

	return math3d.V3(1-u-v, v, u)
}

// interpolateColor3 interpolates between 3 colors using barycentric coords.
func interpolateColor3(c0, c1, c2 Color, bc math3d.Vec3) Color {
	mix := func(a, b, c uint8) uint8 {
		v := float64(a)*bc.X + float64(b)*bc.Y + float64(c)*bc.Z
		return uint8(math.Max(0, math.Min(255, v+0.5)))
	}
	return RGB(mix(c0.R, c1.R, c2.R), mix(c0.G, c1.G, c2.G), mix(c0.B, c1.B, c2.B))
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

// MeshRenderer is the read-only mesh view the rasterizer draws from, so
// render does not import models.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	GetFace(i int) [3]int
}

// ColoredMeshRenderer extends MeshRenderer with per-vertex colors.
type ColoredMeshRenderer interface {
	MeshRenderer
	GetVertexColor(i int) Color
}

// worldTriangle gathers face i of mesh, transformed to world space.
func worldTriangle(mesh MeshRenderer, i int, transform math3d.Mat4) Triangle {
	var tri Triangle
	for k, idx := range mesh.GetFace(i) {
		p, n, uv := mesh.GetVertex(idx)
		tri.V[k] = Vertex{
			Position: transform.MulVec3(p),
			Normal:   transform.MulVec3Dir(n).Normalize(),
			UV:       uv,
			Color:    ColorWhite,
		}
	}
	return tri
}

// DrawMeshColored renders a mesh shaded by its vertex colors.
func (r *Rasterizer) DrawMeshColored(mesh ColoredMeshRenderer, transform math3d.Mat4, lightDir math3d.Vec3) {
	for i := 0; i < mesh.TriangleCount(); i++ {
		tri := worldTriangle(mesh, i, transform)
		for k, idx := range mesh.GetFace(i) {
			tri.V[k].Color = mesh.GetVertexColor(idx)
		}
		r.DrawTriangle(tri, lightDir)
	}
}

// DrawMeshTextured renders a mesh with texture mapping.
func (r *Rasterizer) DrawMeshTextured(mesh MeshRenderer, transform math3d.Mat4, tex *Texture, lightDir math3d.Vec3) {
	for i := 0; i < mesh.TriangleCount(); i++ {
		r.DrawTriangleTextured(worldTriangle(mesh, i, transform), tex, lightDir)
	}
}

// DrawMeshWireframe renders the edges of every triangle.
func (r *Rasterizer) DrawMeshWireframe(mesh MeshRenderer, transform math3d.Mat4, color Color) {
	for i := 0; i < mesh.TriangleCount(); i++ {
		tri := worldTriangle(mesh, i, transform)
		r.drawLine3D(tri.V[0].Position, tri.V[1].Position, color)
		r.drawLine3D(tri.V[1].Position, tri.V[2].Position, color)
		r.drawLine3D(tri.V[2].Position, tri.V[0].Position, color)
	}
}

// drawLine3D draws a 3D line (projected to screen).
func (r *Rasterizer) drawLine3D(a, b math3d.Vec3, color Color) {
	ax, ay, _, okA := r.camera.WorldToScreen(a, r.Width(), r.Height())
	bx, by, _, okB := r.camera.WorldToScreen(b, r.Width(), r.Height())
	if !okA || !okB {
		return
	}
	r.fb.DrawLine(int(ax), int(ay), int(bx), int(by), color)
}

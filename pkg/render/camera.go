package render

import (
	"math"

	"github.com/taigrr/meshpaint/pkg/math3d"
)

// Camera is a perspective camera aimed at a target point with +Y up.
type Camera struct {
	Position math3d.Vec3
	Target   math3d.Vec3

	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64
	Far         float64

	viewProj    math3d.Mat4
	invViewProj math3d.Mat4
	invOK       bool
	dirty       bool
}

// NewCamera creates a camera five units in front of the origin, looking
// down -Z.
func NewCamera() *Camera {
	return &Camera{
		Position:    math3d.V3(0, 0, 5),
		FOV:         math.Pi / 3,
		AspectRatio: 16.0 / 9.0,
		Near:        0.1,
		Far:         100,
		dirty:       true,
	}
}

// SetPosition moves the camera, keeping its target.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.dirty = true
}

// SetFOV sets the vertical field of view in radians.
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.dirty = true
}

func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.dirty = true
}

func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.dirty = true
}

// LookAt aims the camera at target.
func (c *Camera) LookAt(target math3d.Vec3) {
	c.Target = target
	c.dirty = true
}

// Forward returns the unit view direction.
func (c *Camera) Forward() math3d.Vec3 {
	f := c.Target.Sub(c.Position)
	if f.LenSq() == 0 {
		return math3d.V3(0, 0, -1)
	}
	return f.Normalize()
}

// ViewMatrix maps world space into camera space, where the camera sits at
// the origin looking down -Z.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	f := c.Forward()
	up := math3d.V3(0, 1, 0)
	if math.Abs(f.Dot(up)) > 0.999 {
		up = math3d.V3(0, 0, -1)
	}
	r := f.Cross(up).Normalize()
	u := r.Cross(f)
	p := c.Position

	return math3d.Mat4{
		r.X, u.X, -f.X, 0,
		r.Y, u.Y, -f.Y, 0,
		r.Z, u.Z, -f.Z, 0,
		-r.Dot(p), -u.Dot(p), f.Dot(p), 1,
	}
}

// ProjectionMatrix returns the perspective projection.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	return math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
}

// ViewProjectionMatrix returns projection * view, cached until the camera
// changes.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	c.update()
	return c.viewProj
}

func (c *Camera) update() {
	if !c.dirty {
		return
	}
	c.viewProj = c.ProjectionMatrix().Mul(c.ViewMatrix())
	c.invViewProj, c.invOK = c.viewProj.Inverse()
	c.dirty = false
}

// WorldToScreen projects a world point to screen coordinates. visible is
// false for points behind the camera or outside the view volume.
func (c *Camera) WorldToScreen(worldPos math3d.Vec3, screenWidth, screenHeight int) (x, y, depth float64, visible bool) {
	clip := c.ViewProjectionMatrix().MulVec4(math3d.V4FromV3(worldPos, 1))
	if clip.W <= 0 {
		return 0, 0, 0, false
	}

	ndc := clip.PerspectiveDivide()
	if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
		return 0, 0, 0, false
	}

	x = (ndc.X + 1) * 0.5 * float64(screenWidth)
	y = (1 - ndc.Y) * 0.5 * float64(screenHeight)
	return x, y, ndc.Z, true
}

// ScreenToRay unprojects screen position (x, y) into a world-space ray
// starting on the near plane. Screen coordinates grow right and down. A
// degenerate camera yields the zero Ray, which is not Valid.
func (c *Camera) ScreenToRay(x, y float64, screenWidth, screenHeight int) math3d.Ray {
	c.update()
	if !c.invOK || screenWidth <= 0 || screenHeight <= 0 {
		return math3d.Ray{}
	}

	ndcX := 2*x/float64(screenWidth) - 1
	ndcY := 1 - 2*y/float64(screenHeight)

	near := c.invViewProj.MulVec4(math3d.V4(ndcX, ndcY, -1, 1)).PerspectiveDivide()
	far := c.invViewProj.MulVec4(math3d.V4(ndcX, ndcY, 1, 1)).PerspectiveDivide()
	return math3d.NewRay(near, far.Sub(near))
}

package paint

import (
	"slices"

	"github.com/taigrr/meshpaint/pkg/math3d"
	"github.com/taigrr/meshpaint/pkg/models"
)

// Hit is one intersection reported by a TexturePicker.
type Hit struct {
	Distance float64     // Along the ray, from its origin
	Point    math3d.Vec3 // World-space hit point
	Triangle int         // Face index
	UV       math3d.Vec2 // Texture coordinate at the hit point
	Collider string      // Name of the collider that was hit
}

// TexturePicker casts a ray against texture-mapped collision geometry and
// returns every hit.
type TexturePicker interface {
	RaycastAll(ray math3d.Ray) []Hit
}

// Transformer is implemented by pickers that follow the model transform.
type Transformer interface {
	SetTransform(m math3d.Mat4)
}

// MeshCollider is a TexturePicker over a mesh's own triangles. UVs are
// interpolated from the mesh's current vertex UVs, so it picks against
// whatever the last bake assigned.
type MeshCollider struct {
	Name      string
	mesh      *models.Mesh
	transform math3d.Mat4
}

// NewMeshCollider creates a collider for mesh with an identity transform.
func NewMeshCollider(mesh *models.Mesh) *MeshCollider {
	return &MeshCollider{
		Name:      mesh.Name,
		mesh:      mesh,
		transform: math3d.Identity(),
	}
}

// SetTransform sets the model-to-world transform.
func (c *MeshCollider) SetTransform(m math3d.Mat4) {
	c.transform = m
}

// RaycastAll returns the hits of ray against every face, nearest first.
func (c *MeshCollider) RaycastAll(ray math3d.Ray) []Hit {
	if !ray.Valid() {
		return nil
	}

	var hits []Hit
	for ti, f := range c.mesh.Faces {
		va := c.mesh.Vertices[f.V[0]]
		vb := c.mesh.Vertices[f.V[1]]
		vc := c.mesh.Vertices[f.V[2]]

		t, u, v, ok := ray.IntersectTriangle(
			c.transform.MulVec3(va.Position),
			c.transform.MulVec3(vb.Position),
			c.transform.MulVec3(vc.Position),
		)
		if !ok {
			continue
		}

		uv := va.UV.Scale(1 - u - v).Add(vb.UV.Scale(u)).Add(vc.UV.Scale(v))
		hits = append(hits, Hit{
			Distance: t,
			Point:    ray.At(t),
			Triangle: ti,
			UV:       uv,
			Collider: c.Name,
		})
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return a.Triangle - b.Triangle
		}
	})
	return hits
}

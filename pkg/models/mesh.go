// Package models provides the mesh representation painted by meshpaint,
// the per-triangle vertex duplication that atlas packing relies on, and
// GLB import/export.
package models

import (
	"image/color"

	"github.com/taigrr/meshpaint/pkg/math3d"
)

// Mesh represents a triangle mesh with per-vertex colors.
type Mesh struct {
	Name     string
	Vertices []MeshVertex
	Faces    []Face

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
	Color    color.RGBA
}

// Face is a triangle given as three indices into Mesh.Vertices.
type Face struct {
	V [3]int
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:     name,
		Vertices: make([]MeshVertex, 0),
		Faces:    make([]Face, 0),
	}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// IsDuplicated reports whether every face owns three vertices of its own,
// laid out at slots 3t, 3t+1, 3t+2.
func (m *Mesh) IsDuplicated() bool {
	if len(m.Vertices) != len(m.Faces)*3 {
		return false
	}
	for t, f := range m.Faces {
		if f.V != [3]int{3 * t, 3*t + 1, 3*t + 2} {
			return false
		}
	}
	return true
}

// CalculateNormals assigns each face's normal to its three vertices.
// On a duplicated mesh this gives flat shading.
func (m *Mesh) CalculateNormals() {
	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position

		normal := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()

		m.Vertices[f.V[0]].Normal = normal
		m.Vertices[f.V[1]].Normal = normal
		m.Vertices[f.V[2]].Normal = normal
	}
}

// Transform applies a transformation matrix to all vertices.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i].Position = mat.MulVec3(m.Vertices[i].Position)
		m.Vertices[i].Normal = mat.MulVec3Dir(m.Vertices[i].Normal).Normalize()
	}
	m.CalculateBounds()
}

// SetColor paints every vertex with c.
func (m *Mesh) SetColor(c color.RGBA) {
	for i := range m.Vertices {
		m.Vertices[i].Color = c
	}
}

// SetUVs replaces the texture coordinates of the first len(uvs) vertices.
func (m *Mesh) SetUVs(uvs []math3d.Vec2) {
	for i := range min(len(uvs), len(m.Vertices)) {
		m.Vertices[i].UV = uvs[i]
	}
}

// GetVertex returns the position, normal, and UV for vertex i.
// Implements render.MeshRenderer interface.
func (m *Mesh) GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	v := m.Vertices[i]
	return v.Position, v.Normal, v.UV
}

// GetVertexColor returns the color of vertex i.
// Implements render.ColoredMeshRenderer interface.
func (m *Mesh) GetVertexColor(i int) color.RGBA {
	return m.Vertices[i].Color
}

// GetFace returns the vertex indices for face i.
// Implements render.MeshRenderer interface.
func (m *Mesh) GetFace(i int) [3]int {
	return m.Faces[i].V
}

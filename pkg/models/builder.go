package models

import (
	"errors"
	"fmt"

	"github.com/taigrr/meshpaint/pkg/math3d"
)

// ErrInvalidFace is returned when a face references a vertex that does not exist.
var ErrInvalidFace = errors.New("face references missing vertex")

// Duplicate returns a copy of src in which every face owns its three
// vertices: face t uses vertex slots 3t, 3t+1 and 3t+2. Positions, normals
// and colors are copied from the shared vertices; UVs are zeroed because
// they are assigned per triangle when the atlas is baked.
//
// A mesh without faces yields an empty mesh.
func Duplicate(src *Mesh) (*Mesh, error) {
	dst := NewMesh(src.Name)
	if len(src.Faces) == 0 {
		return dst, nil
	}

	dst.Vertices = make([]MeshVertex, 0, len(src.Faces)*3)
	dst.Faces = make([]Face, 0, len(src.Faces))

	for t, f := range src.Faces {
		for _, idx := range f.V {
			if idx < 0 || idx >= len(src.Vertices) {
				return nil, fmt.Errorf("face %d: vertex %d: %w", t, idx, ErrInvalidFace)
			}
			v := src.Vertices[idx]
			v.UV = math3d.Vec2{}
			dst.Vertices = append(dst.Vertices, v)
		}
		dst.Faces = append(dst.Faces, Face{V: [3]int{3 * t, 3*t + 1, 3*t + 2}})
	}

	dst.CalculateBounds()
	return dst, nil
}

// NewGrid builds a flat grid of cols x rows points on the XY plane with
// unit spacing. Each grid square becomes two triangles (v0, v1, v2) and
// (v2, v1, v3), and the result is already duplicated. Fewer than two
// points on either axis gives an empty mesh.
func NewGrid(cols, rows int) *Mesh {
	mesh := NewMesh(fmt.Sprintf("grid_%dx%d", cols, rows))
	if cols < 2 || rows < 2 {
		return mesh
	}

	point := func(x, y int) math3d.Vec3 {
		return math3d.V3(float64(x), float64(y), 0)
	}

	for y := 1; y < rows; y++ {
		for x := 1; x < cols; x++ {
			v0 := point(x-1, y-1)
			v1 := point(x-1, y)
			v2 := point(x, y-1)
			v3 := point(x, y)

			for _, tri := range [2][3]math3d.Vec3{{v0, v1, v2}, {v2, v1, v3}} {
				base := len(mesh.Vertices)
				for _, p := range tri {
					mesh.Vertices = append(mesh.Vertices, MeshVertex{Position: p})
				}
				mesh.Faces = append(mesh.Faces, Face{V: [3]int{base, base + 1, base + 2}})
			}
		}
	}

	mesh.CalculateNormals()
	mesh.CalculateBounds()
	return mesh
}

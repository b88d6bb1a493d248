package models

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/meshpaint/pkg/math3d"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// CalculateNormals fills in flat normals when the file carries none.
	CalculateNormals bool
	// DefaultColor is assigned to vertices without a COLOR_0 attribute.
	DefaultColor color.RGBA
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		DefaultColor:     color.RGBA{255, 255, 255, 255},
	}
}

// LoadGLB loads a binary GLTF (.glb) file.
func LoadGLB(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a GLTF or GLB file and returns a Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.fromDocument(doc, filepath.Base(path))
}

func (l *GLTFLoader) fromDocument(doc *gltf.Document, name string) (*Mesh, error) {
	mesh := NewMesh(name)

	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	hasNormals := false
	for _, v := range mesh.Vertices {
		if v.Normal.Len() > 0.001 {
			hasNormals = true
			break
		}
	}
	if l.CalculateNormals && !hasNormals {
		mesh.CalculateNormals()
	}

	mesh.CalculateBounds()
	return mesh, nil
}

// processMesh extracts geometry from a GLTF mesh.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		var colors []color.RGBA
		if colIdx, ok := prim.Attributes[gltf.COLOR_0]; ok {
			colors, err = readColorAccessor(doc, colIdx)
			if err != nil {
				return fmt.Errorf("read colors: %w", err)
			}
		}

		baseVertex := len(mesh.Vertices)

		for i := range positions {
			v := MeshVertex{
				Position: positions[i],
				Color:    l.DefaultColor,
			}
			if i < len(normals) {
				v.Normal = normals[i]
			}
			// Atlas UVs and GLTF share a top-left origin, no flip needed.
			if i < len(uvs) {
				v.UV = uvs[i]
			}
			if i < len(colors) {
				v.Color = colors[i]
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			face := Face{V: [3]int{
				baseVertex + indices[i],
				baseVertex + indices[i+1],
				baseVertex + indices[i+2],
			}}
			for _, idx := range face.V {
				if idx >= len(mesh.Vertices) {
					return fmt.Errorf("index %d: %w", idx, ErrInvalidFace)
				}
			}
			mesh.Faces = append(mesh.Faces, face)
		}
	}

	return nil
}

// readVec3Accessor reads Vec3 data from a GLTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3, got %v", accessor.Type)
	}

	floats, err := readFloats(doc, accessor, 3)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec3, len(floats))
	for i, f := range floats {
		result[i] = math3d.V3(float64(f[0]), float64(f[1]), float64(f[2]))
	}
	return result, nil
}

// readVec2Accessor reads Vec2 data from a GLTF accessor.
func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec2 {
		return nil, fmt.Errorf("expected VEC2, got %v", accessor.Type)
	}

	floats, err := readFloats(doc, accessor, 2)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec2, len(floats))
	for i, f := range floats {
		result[i] = math3d.V2(float64(f[0]), float64(f[1]))
	}
	return result, nil
}

// readColorAccessor reads COLOR_0 stored as float or normalized ubyte,
// with three or four components.
func readColorAccessor(doc *gltf.Document, accessorIdx int) ([]color.RGBA, error) {
	accessor := doc.Accessors[accessorIdx]

	n := 4
	switch accessor.Type {
	case gltf.AccessorVec4:
	case gltf.AccessorVec3:
		n = 3
	default:
		return nil, fmt.Errorf("expected VEC3 or VEC4, got %v", accessor.Type)
	}

	result := make([]color.RGBA, accessor.Count)

	switch accessor.ComponentType {
	case gltf.ComponentFloat:
		floats, err := readFloats(doc, accessor, n)
		if err != nil {
			return nil, err
		}
		for i, f := range floats {
			c := color.RGBA{unitToByte(f[0]), unitToByte(f[1]), unitToByte(f[2]), 255}
			if n == 4 {
				c.A = unitToByte(f[3])
			}
			result[i] = c
		}
	case gltf.ComponentUbyte:
		data, start, stride, err := accessorBytes(doc, accessor, n)
		if err != nil {
			return nil, err
		}
		for i := range accessor.Count {
			o := start + i*stride
			c := color.RGBA{data[o], data[o+1], data[o+2], 255}
			if n == 4 {
				c.A = data[o+3]
			}
			result[i] = c
		}
	default:
		return nil, fmt.Errorf("unsupported color component type: %v", accessor.ComponentType)
	}

	return result, nil
}

// readIndices reads index data from a GLTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	size := 0
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type: %v", accessor.ComponentType)
	}

	data, start, stride, err := accessorBytes(doc, accessor, size)
	if err != nil {
		return nil, err
	}

	result := make([]int, accessor.Count)
	for i := range accessor.Count {
		o := start + i*stride
		var v uint32
		for b := range size {
			v |= uint32(data[o+b]) << (8 * b)
		}
		result[i] = int(v)
	}
	return result, nil
}

// readFloats reads n float32 components per element.
func readFloats(doc *gltf.Document, accessor *gltf.Accessor, n int) ([][4]float32, error) {
	if accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected FLOAT components, got %v", accessor.ComponentType)
	}

	data, start, stride, err := accessorBytes(doc, accessor, n*4)
	if err != nil {
		return nil, err
	}

	result := make([][4]float32, accessor.Count)
	for i := range accessor.Count {
		offset := start + i*stride
		for j := range n {
			result[i][j] = readFloat32(data[offset+j*4:])
		}
	}
	return result, nil
}

// accessorBytes resolves the buffer backing an accessor and checks that
// count elements of elemSize bytes fit in it.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) (data []byte, start, stride int, err error) {
	if accessor.BufferView == nil {
		return nil, 0, 0, fmt.Errorf("accessor has no buffer view")
	}

	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]
	if buffer.Data == nil {
		return nil, 0, 0, fmt.Errorf("buffer has no data")
	}

	start = bufferView.ByteOffset + accessor.ByteOffset
	stride = bufferView.ByteStride
	if stride == 0 {
		stride = elemSize
	}

	if accessor.Count > 0 {
		end := start + (accessor.Count-1)*stride + elemSize
		if end > len(buffer.Data) {
			return nil, 0, 0, fmt.Errorf("accessor overruns buffer (%d > %d)", end, len(buffer.Data))
		}
	}
	return buffer.Data, start, stride, nil
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}

func unitToByte(f float32) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, float64(f))) * 255))
}

// LoadGLBWithTexture loads a GLB file and returns the mesh plus the first
// embedded texture, which is the atlas when the file was written by SaveGLB.
// The texture is nil if none is embedded.
func LoadGLBWithTexture(path string) (*Mesh, image.Image, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh, err := NewGLTFLoader().fromDocument(doc, filepath.Base(path))
	if err != nil {
		return nil, nil, err
	}

	for _, img := range doc.Images {
		var data []byte
		if img.BufferView != nil {
			bv := doc.BufferViews[*img.BufferView]
			buf := doc.Buffers[bv.Buffer]
			if buf.Data != nil {
				data = buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
			}
		} else if img.URI != "" {
			data, _ = os.ReadFile(filepath.Join(filepath.Dir(path), img.URI))
		}
		if len(data) == 0 {
			continue
		}
		if decoded, err := decodeImage(img.MimeType, data); err == nil {
			return mesh, decoded, nil
		}
	}

	return mesh, nil, nil
}

func decodeImage(mimeType string, data []byte) (image.Image, error) {
	r := bytes.NewReader(data)
	switch mimeType {
	case "image/png":
		return png.Decode(r)
	case "image/jpeg":
		return jpeg.Decode(r)
	default:
		img, _, err := image.Decode(r)
		return img, err
	}
}

// SaveGLB writes the mesh to a binary GLTF file with positions, normals,
// UVs and vertex colors. When texture is non-nil it is embedded as a PNG
// and bound as the base color texture of the mesh's only material.
func SaveGLB(path string, mesh *Mesh, texture image.Image) error {
	if len(mesh.Faces) == 0 {
		return fmt.Errorf("save %s: mesh has no faces", path)
	}

	positions := make([][3]float32, len(mesh.Vertices))
	normals := make([][3]float32, len(mesh.Vertices))
	uvs := make([][2]float32, len(mesh.Vertices))
	colors := make([][4]uint8, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		positions[i] = [3]float32{float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z)}
		normals[i] = [3]float32{float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z)}
		uvs[i] = [2]float32{float32(v.UV.X), float32(v.UV.Y)}
		colors[i] = [4]uint8{v.Color.R, v.Color.G, v.Color.B, v.Color.A}
	}

	indices := make([]uint32, 0, len(mesh.Faces)*3)
	for _, f := range mesh.Faces {
		indices = append(indices, uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2]))
	}

	doc := gltf.NewDocument()
	prim := &gltf.Primitive{
		Indices: gltf.Index(modeler.WriteIndices(doc, indices)),
		Attributes: map[string]int{
			gltf.POSITION:   modeler.WritePosition(doc, positions),
			gltf.NORMAL:     modeler.WriteNormal(doc, normals),
			gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uvs),
			gltf.COLOR_0:    modeler.WriteColor(doc, colors),
		},
	}

	if texture != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, texture); err != nil {
			return fmt.Errorf("encode texture: %w", err)
		}
		imgIdx, err := modeler.WriteImage(doc, mesh.Name+"_atlas", "image/png", &buf)
		if err != nil {
			return fmt.Errorf("embed texture: %w", err)
		}
		doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(imgIdx)})
		doc.Materials = append(doc.Materials, &gltf.Material{
			Name: mesh.Name + "_atlas",
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{Index: len(doc.Textures) - 1},
			},
		})
		prim.Material = gltf.Index(len(doc.Materials) - 1)
	}

	doc.Meshes = []*gltf.Mesh{{Name: mesh.Name, Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: mesh.Name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

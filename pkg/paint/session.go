// Package paint keeps a mesh's vertex colors and its baked atlas in sync
// while the user paints on either of them.
//
// A pointer event carries a world-space ray. The surface path casts it
// against the mesh and recolors the nearest vertex together with every
// vertex sharing its position. The texture path casts it through a
// TexturePicker and stamps a square brush onto the atlas at the hit UV.
package paint

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"go.uber.org/zap"

	"github.com/taigrr/meshpaint/pkg/atlas"
	"github.com/taigrr/meshpaint/pkg/math3d"
	"github.com/taigrr/meshpaint/pkg/models"
)

// ErrInput is returned for malformed caller input.
var ErrInput = errors.New("invalid input")

// Outcome reports whether a pointer event changed anything.
type Outcome int

const (
	OutcomeNoOp Outcome = iota
	OutcomeApplied
)

func (o Outcome) String() string {
	if o == OutcomeApplied {
		return "applied"
	}
	return "no-op"
}

// PointerEvent is one paint input. Ray drives the surface pick. TextureRays
// drive the texture pick; when empty, Ray is used for both.
type PointerEvent struct {
	Ray         math3d.Ray
	TextureRays []math3d.Ray
}

// Result describes what a pointer event changed.
type Result struct {
	Outcome  Outcome
	Vertices []int           // Recolored vertices, nearest first
	Region   image.Rectangle // Atlas pixels written by the brush
}

// Options configures a Session.
type Options struct {
	Atlas             atlas.Options
	BrushSize         int        // Brush edge length in atlas pixels
	PickThreshold     float64    // Max local-space distance from hit point to nearest vertex
	CoincidentEpsilon float64    // Vertices closer than this share a color
	ActiveColor       color.RGBA // Initial paint color
	SyncCells         bool       // Re-bake touched cells after a surface pick
}

// DefaultOptions returns the defaults: 3x3 brush, pick threshold 1.0,
// black paint.
func DefaultOptions() Options {
	return Options{
		Atlas:             atlas.DefaultOptions(),
		BrushSize:         3,
		PickThreshold:     1.0,
		CoincidentEpsilon: 1e-6,
		ActiveColor:       color.RGBA{0, 0, 0, 255},
	}
}

var white = color.RGBA{255, 255, 255, 255}

// Session owns a mesh and its atlas for the duration of a painting session.
// It is not safe for concurrent use.
type Session struct {
	mesh   *models.Mesh
	opts   Options
	picker TexturePicker
	log    *zap.Logger

	transform math3d.Mat4
	world     []math3d.Vec3
	active    color.RGBA

	atlas  *atlas.Atlas
	layout atlas.Layout
	uvs    []math3d.Vec2
}

// New creates a session painting mesh. A nil picker defaults to a
// MeshCollider over the session's mesh; a nil logger discards output.
// Call Initialize before painting.
func New(mesh *models.Mesh, opts Options, picker TexturePicker, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		mesh:      mesh,
		opts:      opts,
		picker:    picker,
		log:       log,
		transform: math3d.Identity(),
		active:    opts.ActiveColor,
	}
}

// Initialize prepares the mesh and performs the first bake. Meshes whose
// faces share vertices are duplicated first; vertices without a color are
// painted white.
func (s *Session) Initialize() error {
	if !s.mesh.IsDuplicated() {
		dup, err := models.Duplicate(s.mesh)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		s.log.Debug("duplicated mesh vertices",
			zap.Int("shared", s.mesh.VertexCount()),
			zap.Int("duplicated", dup.VertexCount()))
		s.mesh = dup
	}

	for i := range s.mesh.Vertices {
		if s.mesh.Vertices[i].Color == (color.RGBA{}) {
			s.mesh.Vertices[i].Color = white
		}
	}

	if s.picker == nil {
		s.picker = NewMeshCollider(s.mesh)
	}
	s.forwardTransform()
	s.refreshWorld()

	return s.Bake()
}

// Bake re-packs the atlas from the current vertex colors. The new atlas
// and UVs replace the old ones only if the bake succeeds.
func (s *Session) Bake() error {
	a, uvs, err := atlas.Bake(s.mesh, s.opts.Atlas)
	if err != nil {
		s.log.Warn("bake failed", zap.Error(err))
		return err
	}
	layout, err := atlas.NewLayout(s.mesh.TriangleCount(), s.opts.Atlas.Resolution, s.opts.Atlas.CellsPerRow)
	if err != nil {
		return err
	}

	s.atlas, s.uvs, s.layout = a, uvs, layout
	s.mesh.SetUVs(uvs)

	s.log.Info("atlas baked",
		zap.Int("width", a.Width),
		zap.Int("height", a.Height),
		zap.Int("triangles", layout.Triangles),
		zap.Stringer("fill", s.opts.Atlas.Fill))
	return nil
}

// SetAtlasOptions changes the packing parameters used by the next Bake.
func (s *Session) SetAtlasOptions(opts atlas.Options) {
	s.opts.Atlas = opts
}

// ImportAtlas overwrites the atlas pixels with img, which must match the
// current layout's dimensions. The atlas keeps its fill mode.
func (s *Session) ImportAtlas(img image.Image) error {
	if s.atlas == nil {
		return fmt.Errorf("import atlas: session not initialized: %w", ErrInput)
	}
	b := img.Bounds()
	if b.Dx() != s.layout.Width || b.Dy() != s.layout.Height {
		return fmt.Errorf("import atlas: image %dx%d does not match atlas %dx%d: %w",
			b.Dx(), b.Dy(), s.layout.Width, s.layout.Height, atlas.ErrConfiguration)
	}
	copy(s.atlas.Pixels, atlas.FromImage(img).Pixels)
	return nil
}

// OnPointerEvent applies one paint event to the mesh and the atlas.
// Invalid rays and misses are no-ops, not errors.
func (s *Session) OnPointerEvent(ev PointerEvent) (Result, error) {
	if s.atlas == nil {
		return Result{}, fmt.Errorf("pointer event: session not initialized: %w", ErrInput)
	}

	var res Result
	if !ev.Ray.Valid() {
		s.log.Debug("ignoring invalid ray")
		return res, nil
	}

	if verts := s.pickSurface(ev.Ray); len(verts) > 0 {
		for _, v := range verts {
			s.mesh.Vertices[v].Color = s.active
		}
		res.Vertices = verts
		if s.opts.SyncCells {
			s.syncCells(verts)
		}
	}

	rays := ev.TextureRays
	if len(rays) == 0 {
		rays = []math3d.Ray{ev.Ray}
	}
	for _, ray := range rays {
		if region, ok := s.pickTexture(ray); ok {
			res.Region = res.Region.Union(region)
		}
	}

	if len(res.Vertices) > 0 || !res.Region.Empty() {
		res.Outcome = OutcomeApplied
	}
	s.log.Debug("pointer event",
		zap.Stringer("outcome", res.Outcome),
		zap.Ints("vertices", res.Vertices),
		zap.Stringer("region", res.Region))
	return res, nil
}

// pickSurface returns the vertex nearest to the closest ray/face hit,
// followed by every other vertex at the same world position. It returns nil
// on a miss or when the nearest vertex is farther than PickThreshold from
// the hit in local space.
func (s *Session) pickSurface(ray math3d.Ray) []int {
	bestT := math.Inf(1)
	for _, f := range s.mesh.Faces {
		t, _, _, ok := ray.IntersectTriangle(s.world[f.V[0]], s.world[f.V[1]], s.world[f.V[2]])
		if ok && t < bestT {
			bestT = t
		}
	}
	if math.IsInf(bestT, 1) {
		return nil
	}
	inv, ok := s.transform.Inverse()
	if !ok {
		s.log.Debug("surface pick with singular transform")
		return nil
	}
	// The threshold is in mesh-local units.
	point := inv.MulVec3(ray.At(bestT))

	nearest := -1
	nearestDist := math.Inf(1)
	for i, v := range s.mesh.Vertices {
		if d := v.Position.Distance(point); d < nearestDist {
			nearest, nearestDist = i, d
		}
	}
	if nearest < 0 || nearestDist > s.opts.PickThreshold {
		s.log.Debug("surface pick out of range", zap.Float64("distance", nearestDist))
		return nil
	}

	verts := []int{nearest}
	anchor := s.world[nearest]
	for i, p := range s.world {
		if i != nearest && p.Distance(anchor) <= s.opts.CoincidentEpsilon {
			verts = append(verts, i)
		}
	}
	return verts
}

// pickTexture stamps the brush at the nearest texture hit of ray. The
// brush square starts at the hit pixel and grows toward +x and +y; it is
// clipped to the atlas.
func (s *Session) pickTexture(ray math3d.Ray) (image.Rectangle, bool) {
	if s.picker == nil || !ray.Valid() {
		return image.Rectangle{}, false
	}

	hits := s.picker.RaycastAll(ray)
	if len(hits) == 0 {
		return image.Rectangle{}, false
	}
	nearest := hits[0]
	for _, h := range hits[1:] {
		if h.Distance < nearest.Distance {
			nearest = h
		}
	}
	if !nearest.UV.IsFinite() {
		return image.Rectangle{}, false
	}

	x, y := s.layout.PixelAt(nearest.UV)
	return s.stamp(x, y)
}

// stamp fills the brush square anchored at pixel (x, y).
func (s *Session) stamp(x, y int) (image.Rectangle, bool) {
	size := max(s.opts.BrushSize, 1)
	region := s.atlas.FillRect(image.Rect(x, y, x+size, y+size), s.active)
	return region, !region.Empty()
}

// AtlasHit locates an atlas pixel within the packing.
type AtlasHit struct {
	Triangle int
	Col, Row int  // Position inside the triangle's cell
	Inside   bool // The pixel lies in the triangle's half of the cell
}

// PaintAtlas stamps the brush directly at atlas pixel (x, y) and reports
// which triangle's cell the pixel belongs to. ok is false for pixels
// outside the atlas or in unused cells; the brush is still applied to any
// part of it that lands on the atlas.
func (s *Session) PaintAtlas(x, y int) (res Result, hit AtlasHit, ok bool, err error) {
	if s.atlas == nil {
		return Result{}, AtlasHit{}, false, fmt.Errorf("paint atlas: session not initialized: %w", ErrInput)
	}

	if region, applied := s.stamp(x, y); applied {
		res.Region = region
		res.Outcome = OutcomeApplied
	}
	if tri, j, i, found := s.layout.CellCoord(x, y); found {
		hit = AtlasHit{Triangle: tri, Col: j, Row: i, Inside: j <= i}
		ok = true
	}
	s.log.Debug("atlas paint",
		zap.Stringer("outcome", res.Outcome),
		zap.Int("triangle", hit.Triangle),
		zap.Bool("owned", ok),
		zap.Stringer("region", res.Region))
	return res, hit, ok, nil
}

// syncCells re-bakes the cells of the triangles owning verts.
func (s *Session) syncCells(verts []int) {
	done := make(map[int]bool)
	for _, v := range verts {
		tri := v / 3
		if done[tri] {
			continue
		}
		done[tri] = true
		if err := s.atlas.RefreshTriangle(s.mesh, s.layout, tri); err != nil {
			s.log.Warn("cell refresh failed", zap.Int("triangle", tri), zap.Error(err))
		}
	}
}

// SetActiveColor sets the paint color from a hex string. On error the
// previous color is kept.
func (s *Session) SetActiveColor(hex string) error {
	c, err := ParseColor(hex)
	if err != nil {
		s.log.Warn("could not parse color", zap.String("input", hex), zap.Error(err))
		return err
	}
	s.active = c
	return nil
}

// SetBrushSize sets the texture brush edge length in pixels.
func (s *Session) SetBrushSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("brush size %d: %w", n, ErrInput)
	}
	s.opts.BrushSize = n
	return nil
}

// SetTransform sets the model-to-world transform used for picking.
func (s *Session) SetTransform(m math3d.Mat4) {
	s.transform = m
	s.forwardTransform()
	s.refreshWorld()
}

// RotateModel rotates the model about its local X axis by pitch and then
// its local Y axis by yaw, both in radians.
func (s *Session) RotateModel(pitch, yaw float64) {
	s.SetTransform(s.transform.Mul(math3d.RotateX(pitch)).Mul(math3d.RotateY(yaw)))
}

func (s *Session) forwardTransform() {
	if t, ok := s.picker.(Transformer); ok {
		t.SetTransform(s.transform)
	}
}

func (s *Session) refreshWorld() {
	if len(s.world) != len(s.mesh.Vertices) {
		s.world = make([]math3d.Vec3, len(s.mesh.Vertices))
	}
	for i, v := range s.mesh.Vertices {
		s.world[i] = s.transform.MulVec3(v.Position)
	}
}

// Mesh returns the painted mesh.
func (s *Session) Mesh() *models.Mesh { return s.mesh }

// Atlas returns the current atlas, or nil before Initialize.
func (s *Session) Atlas() *atlas.Atlas { return s.atlas }

// Layout returns the layout of the current atlas.
func (s *Session) Layout() atlas.Layout { return s.layout }

// UVs returns the per-vertex UVs of the last successful bake.
func (s *Session) UVs() []math3d.Vec2 { return s.uvs }

// ActiveColor returns the current paint color.
func (s *Session) ActiveColor() color.RGBA { return s.active }

// BrushSize returns the texture brush edge length.
func (s *Session) BrushSize() int { return s.opts.BrushSize }

// Transform returns the model-to-world transform.
func (s *Session) Transform() math3d.Mat4 { return s.transform }

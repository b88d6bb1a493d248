package paint

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/taigrr/meshpaint/pkg/atlas"
	"github.com/taigrr/meshpaint/pkg/math3d"
	"github.com/taigrr/meshpaint/pkg/models"
)

var red = color.RGBA{255, 0, 0, 255}

// uvPicker reports a single hit whose UV is the ray origin's X and Y.
type uvPicker struct{}

func (uvPicker) RaycastAll(ray math3d.Ray) []Hit {
	return []Hit{{Distance: 1, UV: math3d.V2(ray.Origin.X, ray.Origin.Y), Collider: "uv"}}
}

// fixedPicker always returns the same hits.
type fixedPicker []Hit

func (p fixedPicker) RaycastAll(math3d.Ray) []Hit { return p }

func testOptions() Options {
	opts := DefaultOptions()
	opts.Atlas = atlas.Options{Resolution: 4, CellsPerRow: 100}
	return opts
}

func newGridSession(t *testing.T, opts Options, picker TexturePicker) *Session {
	t.Helper()
	s := New(models.NewGrid(2, 2), opts, picker, nil)
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return s
}

// downRay points straight down -Z at (x, y).
func downRay(x, y float64) math3d.Ray {
	return math3d.NewRay(math3d.V3(x, y, 5), math3d.V3(0, 0, -1))
}

func TestInitialize(t *testing.T) {
	s := newGridSession(t, testOptions(), nil)

	a := s.Atlas()
	if a == nil || a.Width != 8 || a.Height != 4 {
		t.Fatalf("atlas = %+v, want 8x4", a)
	}
	for i, v := range s.Mesh().Vertices {
		if v.Color != white {
			t.Errorf("vertex %d color = %v, want white", i, v.Color)
		}
	}
	if got := a.RGBAAt(3, 3); got != white {
		t.Errorf("corner pixel = %v, want white", got)
	}
	if len(s.UVs()) != 6 {
		t.Errorf("uvs = %d, want 6", len(s.UVs()))
	}
	if s.ActiveColor() != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("default active color = %v, want black", s.ActiveColor())
	}
}

func TestInitializeDuplicatesSharedMesh(t *testing.T) {
	shared := models.NewMesh("shared")
	for _, p := range []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(0, 1, 0), math3d.V3(1, 0, 0), math3d.V3(1, 1, 0),
	} {
		shared.Vertices = append(shared.Vertices, models.MeshVertex{Position: p})
	}
	shared.Faces = []models.Face{{V: [3]int{0, 1, 2}}, {V: [3]int{2, 1, 3}}}
	shared.Vertices[3].Color = red

	s := New(shared, testOptions(), nil, nil)
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if !s.Mesh().IsDuplicated() {
		t.Fatal("session mesh is not duplicated")
	}
	if got := s.Mesh().Vertices[5].Color; got != red {
		t.Errorf("preset color lost: got %v, want %v", got, red)
	}
	if got := s.Atlas().RGBAAt(7, 3); got != red {
		t.Errorf("corner C of triangle 1 = %v, want %v", got, red)
	}
}

func TestInitializeInvalidFace(t *testing.T) {
	m := models.NewMesh("broken")
	m.Vertices = make([]models.MeshVertex, 3)
	m.Faces = []models.Face{{V: [3]int{0, 1, 7}}}

	err := New(m, testOptions(), nil, nil).Initialize()
	if !errors.Is(err, models.ErrInvalidFace) {
		t.Errorf("err = %v, want ErrInvalidFace", err)
	}
}

func TestPointerEventBeforeInitialize(t *testing.T) {
	s := New(models.NewGrid(2, 2), testOptions(), nil, nil)
	if _, err := s.OnPointerEvent(PointerEvent{Ray: downRay(0.5, 0.5)}); !errors.Is(err, ErrInput) {
		t.Errorf("err = %v, want ErrInput", err)
	}
}

func TestSurfacePickCoincidentVertices(t *testing.T) {
	s := newGridSession(t, testOptions(), fixedPicker(nil))
	if err := s.SetActiveColor("#FF0000"); err != nil {
		t.Fatal(err)
	}

	res, err := s.OnPointerEvent(PointerEvent{Ray: downRay(0.8, 0.1)})
	if err != nil {
		t.Fatalf("OnPointerEvent: %v", err)
	}
	if res.Outcome != OutcomeApplied {
		t.Fatalf("outcome = %v, want applied", res.Outcome)
	}

	// (1,0,0) is corner C of triangle 0 and corner A of triangle 1.
	if len(res.Vertices) != 2 || res.Vertices[0] != 2 || res.Vertices[1] != 3 {
		t.Fatalf("vertices = %v, want [2 3]", res.Vertices)
	}
	for i, v := range s.Mesh().Vertices {
		want := white
		if i == 2 || i == 3 {
			want = red
		}
		if v.Color != want {
			t.Errorf("vertex %d color = %v, want %v", i, v.Color, want)
		}
	}
	if !res.Region.Empty() {
		t.Errorf("region = %v, want empty without texture hits", res.Region)
	}
}

// newTriangleSession paints a single triangle with legs of length size.
func newTriangleSession(t *testing.T, size float64) *Session {
	t.Helper()
	mesh := models.NewMesh("tri")
	for _, p := range []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(size, 0, 0), math3d.V3(0, size, 0)} {
		mesh.Vertices = append(mesh.Vertices, models.MeshVertex{Position: p})
	}
	mesh.Faces = append(mesh.Faces, models.Face{V: [3]int{0, 1, 2}})
	s := New(mesh, testOptions(), fixedPicker(nil), nil)
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	_ = s.SetActiveColor("#FF0000")
	return s
}

func TestSurfacePickThreshold(t *testing.T) {
	tests := []struct {
		name      string
		size      float64
		transform math3d.Mat4
		x, y      float64
		applied   bool
	}{
		{"near vertex", 20, math3d.Identity(), 0.5, 0.5, true},
		{"far from vertices", 20, math3d.Identity(), 6, 6, false},
		{"shrunk mesh far in local units", 20, math3d.Scale(math3d.V3(0.1, 0.1, 0.1)), 0.6, 0.6, false},
		{"shrunk mesh near in local units", 20, math3d.Scale(math3d.V3(0.1, 0.1, 0.1)), 0.05, 0.05, true},
		{"grown mesh near in local units", 1, math3d.Scale(math3d.V3(10, 10, 10)), 3, 3, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTriangleSession(t, tc.size)
			s.SetTransform(tc.transform)

			res, err := s.OnPointerEvent(PointerEvent{Ray: downRay(tc.x, tc.y)})
			if err != nil {
				t.Fatalf("OnPointerEvent: %v", err)
			}
			if !tc.applied {
				if res.Outcome != OutcomeNoOp || len(res.Vertices) != 0 {
					t.Errorf("result = %+v, want no-op", res)
				}
				for i, v := range s.Mesh().Vertices {
					if v.Color != white {
						t.Errorf("vertex %d recolored to %v", i, v.Color)
					}
				}
				return
			}
			if res.Outcome != OutcomeApplied || len(res.Vertices) != 1 || res.Vertices[0] != 0 {
				t.Errorf("result = %+v, want vertex 0 applied", res)
			}
			if got := s.Mesh().Vertices[0].Color; got != red {
				t.Errorf("vertex 0 color = %v, want %v", got, red)
			}
		})
	}
}

func TestPointerEventMiss(t *testing.T) {
	s := newGridSession(t, testOptions(), nil)
	before := s.Atlas().Clone()

	res, err := s.OnPointerEvent(PointerEvent{Ray: downRay(50, 50)})
	if err != nil {
		t.Fatalf("OnPointerEvent: %v", err)
	}
	if res.Outcome != OutcomeNoOp {
		t.Errorf("outcome = %v, want no-op", res.Outcome)
	}
	for i := range before.Pixels {
		if before.Pixels[i] != s.Atlas().Pixels[i] {
			t.Fatalf("atlas pixel %d changed on a miss", i)
		}
	}
}

func TestPointerEventInvalidRay(t *testing.T) {
	s := newGridSession(t, testOptions(), uvPicker{})

	rays := []math3d.Ray{
		{Origin: math3d.V3(math.NaN(), 0, 5), Direction: math3d.V3(0, 0, -1)},
		{Origin: math3d.V3(0.5, 0.5, 5)},
		{Origin: math3d.V3(0.5, 0.5, 5), Direction: math3d.V3(0, math.Inf(1), 0)},
	}
	for _, ray := range rays {
		res, err := s.OnPointerEvent(PointerEvent{Ray: ray})
		if err != nil || res.Outcome != OutcomeNoOp {
			t.Errorf("ray %+v: result = %+v, err = %v; want no-op", ray, res, err)
		}
	}
}

func TestTexturePickMeshCollider(t *testing.T) {
	s := newGridSession(t, testOptions(), nil)
	_ = s.SetActiveColor("#FF0000")

	res, err := s.OnPointerEvent(PointerEvent{Ray: downRay(0.8, 0.1)})
	if err != nil {
		t.Fatalf("OnPointerEvent: %v", err)
	}

	// UV of (0.8, 0.1) on triangle 0 lands on atlas pixel (2, 3).
	want := image.Rect(2, 3, 5, 4)
	if res.Region != want {
		t.Fatalf("region = %v, want %v", res.Region, want)
	}
	for y := range s.Atlas().Height {
		for x := range s.Atlas().Width {
			in := image.Pt(x, y).In(want)
			if got := s.Atlas().RGBAAt(x, y); in && got != red {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, red)
			}
		}
	}
}

func TestTexturePickBrushAtOrigin(t *testing.T) {
	s := newGridSession(t, testOptions(), fixedPicker{
		{Distance: 3, UV: math3d.V2(1, 1)},
		{Distance: 2, UV: math3d.V2(0, 0)},
	})

	res, err := s.OnPointerEvent(PointerEvent{Ray: downRay(50, 50)})
	if err != nil {
		t.Fatalf("OnPointerEvent: %v", err)
	}
	if want := image.Rect(0, 0, 3, 3); res.Region != want {
		t.Errorf("region = %v, want %v", res.Region, want)
	}
	if res.Region.Min.X < 0 || res.Region.Min.Y < 0 {
		t.Errorf("region %v has negative coordinates", res.Region)
	}
	if res.Outcome != OutcomeApplied {
		t.Errorf("outcome = %v, want applied", res.Outcome)
	}
}

func TestTexturePickBrushClipped(t *testing.T) {
	s := newGridSession(t, testOptions(), fixedPicker{{Distance: 1, UV: math3d.V2(1, 1)}})
	if err := s.SetBrushSize(5); err != nil {
		t.Fatal(err)
	}

	res, _ := s.OnPointerEvent(PointerEvent{Ray: downRay(50, 50)})
	if want := image.Rect(7, 3, 8, 4); res.Region != want {
		t.Errorf("region = %v, want %v", res.Region, want)
	}
}

func TestTextureRays(t *testing.T) {
	s := newGridSession(t, testOptions(), uvPicker{})

	res, err := s.OnPointerEvent(PointerEvent{
		Ray: downRay(50, 50),
		TextureRays: []math3d.Ray{
			math3d.NewRay(math3d.V3(0, 0, 5), math3d.V3(0, 0, -1)),
			math3d.NewRay(math3d.V3(1, 1, 5), math3d.V3(0, 0, -1)),
			{Origin: math3d.V3(0.5, 0.5, 5)}, // invalid, skipped
		},
	})
	if err != nil {
		t.Fatalf("OnPointerEvent: %v", err)
	}
	if want := image.Rect(0, 0, 8, 4); res.Region != want {
		t.Errorf("region = %v, want %v", res.Region, want)
	}
	if got := s.Atlas().RGBAAt(7, 3); got != s.ActiveColor() {
		t.Errorf("pixel (7,3) = %v, want active color", got)
	}
	if got := s.Atlas().RGBAAt(4, 1); got != (color.RGBA{}) {
		t.Errorf("pixel (4,1) = %v, want untouched", got)
	}
}

func TestSyncCells(t *testing.T) {
	opts := testOptions()
	opts.SyncCells = true
	s := newGridSession(t, opts, fixedPicker(nil))
	_ = s.SetActiveColor("#FF0000")

	if _, err := s.OnPointerEvent(PointerEvent{Ray: downRay(0.8, 0.1)}); err != nil {
		t.Fatal(err)
	}

	// Vertex 2 is corner C of triangle 0, vertex 3 corner A of triangle 1.
	if got := s.Atlas().RGBAAt(3, 3); got != red {
		t.Errorf("triangle 0 corner C = %v, want %v", got, red)
	}
	if got := s.Atlas().RGBAAt(4, 0); got != red {
		t.Errorf("triangle 1 corner A = %v, want %v", got, red)
	}
	if got := s.Atlas().RGBAAt(0, 0); got != white {
		t.Errorf("triangle 0 corner A = %v, want white", got)
	}
}

func TestBakeFailureKeepsPreviousAtlas(t *testing.T) {
	s := newGridSession(t, testOptions(), nil)
	prevAtlas, prevUVs := s.Atlas(), s.UVs()

	s.SetAtlasOptions(atlas.Options{Resolution: 0, CellsPerRow: 100})
	if err := s.Bake(); !errors.Is(err, atlas.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
	if s.Atlas() != prevAtlas {
		t.Error("failed bake replaced the atlas")
	}
	if &s.UVs()[0] != &prevUVs[0] {
		t.Error("failed bake replaced the UVs")
	}
	if s.Layout().Width != 8 || s.Layout().Height != 4 {
		t.Errorf("layout = %+v, want 8x4", s.Layout())
	}
}

func TestBakeAfterPaint(t *testing.T) {
	s := newGridSession(t, testOptions(), fixedPicker(nil))
	_ = s.SetActiveColor("00ff00")
	if _, err := s.OnPointerEvent(PointerEvent{Ray: downRay(0.1, 0.1)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Bake(); err != nil {
		t.Fatal(err)
	}
	if got, want := s.Atlas().RGBAAt(0, 0), (color.RGBA{0, 255, 0, 255}); got != want {
		t.Errorf("corner A after rebake = %v, want %v", got, want)
	}
}

func TestSetActiveColor(t *testing.T) {
	s := New(models.NewGrid(2, 2), DefaultOptions(), nil, nil)

	if err := s.SetActiveColor("#FF0000"); err != nil {
		t.Fatalf("SetActiveColor: %v", err)
	}
	if s.ActiveColor() != red {
		t.Errorf("active = %v, want %v", s.ActiveColor(), red)
	}

	for _, bad := range []string{"not-a-color", "#FFF", "#GG0000", "", "#FF00001"} {
		if err := s.SetActiveColor(bad); !errors.Is(err, ErrInput) {
			t.Errorf("SetActiveColor(%q) err = %v, want ErrInput", bad, err)
		}
		if s.ActiveColor() != red {
			t.Errorf("SetActiveColor(%q) changed the color to %v", bad, s.ActiveColor())
		}
	}
}

func TestPaintAtlas(t *testing.T) {
	tests := []struct {
		name    string
		x, y    int
		region  image.Rectangle
		hit     AtlasHit
		ok      bool
		applied bool
	}{
		{"triangle half", 5, 2, image.Rect(5, 2, 8, 4), AtlasHit{Triangle: 1, Col: 1, Row: 2, Inside: true}, true, true},
		{"upper half of cell", 2, 0, image.Rect(2, 0, 5, 3), AtlasHit{Triangle: 0, Col: 2, Row: 0}, true, true},
		{"brush overlaps from outside", -1, -1, image.Rect(0, 0, 2, 2), AtlasHit{}, false, true},
		{"far outside", 20, 20, image.Rectangle{}, AtlasHit{}, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newGridSession(t, testOptions(), nil)
			_ = s.SetActiveColor("#FF0000")

			res, hit, ok, err := s.PaintAtlas(tc.x, tc.y)
			if err != nil {
				t.Fatalf("PaintAtlas: %v", err)
			}
			if res.Region != tc.region || hit != tc.hit || ok != tc.ok {
				t.Errorf("PaintAtlas(%d, %d) = %v, %+v, %v; want %v, %+v, %v",
					tc.x, tc.y, res.Region, hit, ok, tc.region, tc.hit, tc.ok)
			}
			if got := res.Outcome == OutcomeApplied; got != tc.applied {
				t.Errorf("applied = %v, want %v", got, tc.applied)
			}
			if tc.applied {
				if got := s.Atlas().RGBAAt(tc.region.Min.X, tc.region.Min.Y); got != red {
					t.Errorf("pixel %v = %v, want red", tc.region.Min, got)
				}
			}
			for i, v := range s.Mesh().Vertices {
				if v.Color != white {
					t.Errorf("vertex %d recolored by atlas paint", i)
				}
			}
		})
	}
}

func TestPaintAtlasBeforeInitialize(t *testing.T) {
	s := New(models.NewGrid(2, 2), testOptions(), nil, nil)
	if _, _, _, err := s.PaintAtlas(0, 0); !errors.Is(err, ErrInput) {
		t.Errorf("err = %v, want ErrInput", err)
	}
}

func TestSetBrushSize(t *testing.T) {
	s := New(models.NewGrid(2, 2), DefaultOptions(), nil, nil)
	if err := s.SetBrushSize(0); !errors.Is(err, ErrInput) {
		t.Errorf("err = %v, want ErrInput", err)
	}
	if s.BrushSize() != 3 {
		t.Errorf("brush = %d, want 3", s.BrushSize())
	}
}

func TestRotateModelMovesPicking(t *testing.T) {
	s := newGridSession(t, testOptions(), nil)
	_ = s.SetActiveColor("#FF0000")

	// Half a turn about Y mirrors the grid onto x in [-1, 0].
	s.RotateModel(0, math.Pi)

	res, err := s.OnPointerEvent(PointerEvent{Ray: downRay(0.8, 0.1)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != OutcomeNoOp {
		t.Errorf("pick at the old position = %+v, want no-op", res)
	}

	res, err = s.OnPointerEvent(PointerEvent{Ray: downRay(-0.8, 0.1)})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Vertices) != 2 || res.Region.Empty() {
		t.Errorf("pick at the rotated position = %+v, want both paths applied", res)
	}
}

func TestImportAtlas(t *testing.T) {
	s := newGridSession(t, testOptions(), nil)

	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.SetRGBA(5, 2, red)
	if err := s.ImportAtlas(img); err != nil {
		t.Fatalf("ImportAtlas: %v", err)
	}
	if got := s.Atlas().RGBAAt(5, 2); got != red {
		t.Errorf("imported pixel = %v, want red", got)
	}

	wrong := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := s.ImportAtlas(wrong); !errors.Is(err, atlas.ErrConfiguration) {
		t.Errorf("size mismatch err = %v, want ErrConfiguration", err)
	}
	if got := s.Atlas().RGBAAt(5, 2); got != red {
		t.Error("rejected import replaced the atlas")
	}

	fresh := New(models.NewGrid(2, 2), testOptions(), nil, nil)
	if err := fresh.ImportAtlas(img); !errors.Is(err, ErrInput) {
		t.Errorf("uninitialized err = %v, want ErrInput", err)
	}
}

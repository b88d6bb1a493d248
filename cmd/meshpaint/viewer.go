package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"go.uber.org/zap"

	"github.com/taigrr/meshpaint/internal/config"
	"github.com/taigrr/meshpaint/internal/logger"
	"github.com/taigrr/meshpaint/pkg/asset"
	"github.com/taigrr/meshpaint/pkg/atlas"
	"github.com/taigrr/meshpaint/pkg/math3d"
	"github.com/taigrr/meshpaint/pkg/paint"
	"github.com/taigrr/meshpaint/pkg/render"
)

// ViewMode selects what the viewer draws.
type ViewMode int

const (
	ViewSurface  ViewMode = iota // Vertex colors
	ViewTextured                 // Mesh sampled from the atlas
	ViewAtlas                    // The atlas image itself
)

func (m ViewMode) String() string {
	switch m {
	case ViewSurface:
		return "surface"
	case ViewTextured:
		return "textured"
	case ViewAtlas:
		return "atlas"
	default:
		return "unknown"
	}
}

// Next cycles to the following view mode.
func (m ViewMode) Next() ViewMode {
	return (m + 1) % 3
}

var palette = [...]string{
	"#000000", "#ffffff", "#e53935", "#43a047",
	"#1e88e5", "#fdd835", "#8e24aa", "#fb8c00",
}

// ViewState holds UI settings that are not part of the paint session.
type ViewState struct {
	Mode      ViewMode
	Wireframe bool
	ShowHUD   bool
	LightDir  math3d.Vec3
	Status    string
}

func NewViewState() *ViewState {
	return &ViewState{
		Mode:     ViewSurface,
		ShowHUD:  true,
		LightDir: math3d.V3(0.5, 1, 0.3).Normalize(),
	}
}

// viewer is the interactive painter. All session and render state is owned
// by the frame loop; the input goroutine sends closures over actions.
type viewer struct {
	cfg     *config.Config
	session *paint.Session
	name    string
	fit     math3d.Mat4

	term       *uv.Terminal
	width      int
	height     int
	termRender *render.TerminalRenderer
	fb         *render.Framebuffer
	camera     *render.Camera
	rasterizer *render.Rasterizer
	texture    *render.Texture
	texAtlas   *atlas.Atlas

	rotation *RotationState
	view     *ViewState
	hud      *HUD
	cameraZ  float64
	bg       render.Color

	actions chan func()
}

func runViewer(ctx context.Context, cfg *config.Config) error {
	s, name, fit, err := openSession(cfg)
	if err != nil {
		return err
	}
	bg, err := paint.ParseColor(cfg.Viewer.Background)
	if err != nil {
		return err
	}

	v := &viewer{
		cfg:      cfg,
		session:  s,
		name:     name,
		fit:      fit,
		rotation: NewRotationState(cfg.Viewer.FPS),
		view:     NewViewState(),
		hud:      NewHUD(name, s.Mesh().TriangleCount()),
		cameraZ:  5.0,
		bg:       bg,
		actions:  make(chan func(), 256),
	}
	return v.run(ctx)
}

func (v *viewer) run(ctx context.Context) error {
	v.term = uv.DefaultTerminal()

	width, height, err := v.term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := v.term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	v.term.EnterAltScreen()
	v.term.HideCursor()
	v.term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR extended mouse mode

	v.camera = render.NewCamera()
	v.camera.SetFOV(math.Pi / 3)
	v.camera.SetClipPlanes(0.1, 100)
	v.camera.SetPosition(math3d.V3(0, 0, v.cameraZ))
	v.camera.LookAt(math3d.Zero3())
	v.resize(width, height)

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		v.term.ExitAltScreen()
		v.term.ShowCursor()
		v.term.Shutdown(context.Background())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go v.readEvents(ctx, cancel)

	targetDuration := time.Second / time.Duration(v.cfg.Viewer.FPS)
	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		now := time.Now()
		v.drainActions()
		v.rotation.Update()
		v.draw()

		v.termRender.Render(v.fb)
		if err := v.termRender.Flush(); err != nil {
			cleanup()
			return fmt.Errorf("flush: %w", err)
		}

		v.hud.UpdateFPS()
		v.hud.Render(v.width, v.height, v.view, v.brushInfo())

		if elapsed := time.Since(now); elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

func (v *viewer) resize(width, height int) {
	v.width, v.height = width, height
	v.termRender = render.NewTerminalRenderer(v.term, width, height)
	fbWidth, fbHeight := v.termRender.FramebufferSize()
	if v.fb == nil {
		v.fb = render.NewFramebuffer(fbWidth, fbHeight)
	} else {
		v.fb.Resize(fbWidth, fbHeight)
	}
	v.rasterizer = render.NewRasterizer(v.camera, v.fb)
	v.rasterizer.DisableBackfaceCulling = true
	v.camera.SetAspectRatio(float64(fbWidth) / float64(fbHeight))
}

// modelTransform is the current model-to-world transform.
func (v *viewer) modelTransform() math3d.Mat4 {
	return math3d.RotateX(v.rotation.Pitch.Position).
		Mul(math3d.RotateY(v.rotation.Yaw.Position)).
		Mul(v.fit)
}

func (v *viewer) draw() {
	v.fb.Clear(v.bg)
	v.rasterizer.ClearDepth()

	mesh := v.session.Mesh()
	transform := v.modelTransform()

	switch v.view.Mode {
	case ViewAtlas:
		v.fb.DrawImageFit(v.session.Atlas())
		return
	case ViewTextured:
		v.rasterizer.DrawMeshTextured(mesh, transform, v.atlasTexture(), v.view.LightDir)
	default:
		v.rasterizer.DrawMeshColored(mesh, transform, v.view.LightDir)
	}

	if v.view.Wireframe {
		v.rasterizer.DrawMeshWireframe(mesh, transform, render.RGB(0, 255, 128))
	}
}

// atlasTexture returns a texture view of the current atlas, rebuilt after
// every bake since a bake replaces the atlas.
func (v *viewer) atlasTexture() *render.Texture {
	if a := v.session.Atlas(); a != v.texAtlas {
		v.texAtlas = a
		v.texture = render.NewAtlasTexture(a.Width, a.Height, a.Pixels)
		if v.cfg.Viewer.Bilinear {
			v.texture.FilterMode = render.FilterBilinear
		}
	}
	return v.texture
}

func (v *viewer) brushInfo() BrushInfo {
	l := v.session.Layout()
	return BrushInfo{
		Color: v.session.ActiveColor(),
		Size:  v.session.BrushSize(),
		Atlas: fmt.Sprintf("%dx%d", l.Width, l.Height),
	}
}

func (v *viewer) drainActions() {
	for {
		select {
		case fn := <-v.actions:
			fn()
		default:
			return
		}
	}
}

// paintAt casts a ray through terminal cell (col, row) and applies it.
func (v *viewer) paintAt(col, row int) {
	if v.view.Mode == ViewAtlas {
		v.paintAtlasAt(col, row)
		return
	}
	if t := v.modelTransform(); t != v.session.Transform() {
		v.session.SetTransform(t)
	}

	x, y := render.CellToPixel(col, row)
	ray := v.camera.ScreenToRay(x, y, v.fb.Width, v.fb.Height)
	res, err := v.session.OnPointerEvent(paint.PointerEvent{Ray: ray})
	if err != nil {
		v.view.Status = err.Error()
		logger.Warn("paint failed", zap.Error(err))
		return
	}
	if res.Outcome == paint.OutcomeApplied {
		v.view.Status = fmt.Sprintf("painted %d verts, %d px", len(res.Vertices), res.Region.Dx()*res.Region.Dy())
	}
}

func (v *viewer) paintAtlasAt(col, row int) {
	l := v.session.Layout()
	x, y := render.CellToPixel(col, row)
	p, ok := v.fb.ImagePoint(l.Width, l.Height, x, y)
	if !ok {
		return
	}
	res, hit, owned, err := v.session.PaintAtlas(p.X, p.Y)
	if err != nil {
		v.view.Status = err.Error()
		logger.Warn("atlas paint failed", zap.Error(err))
		return
	}
	if res.Outcome != paint.OutcomeApplied {
		return
	}
	if owned {
		v.view.Status = fmt.Sprintf("painted triangle %d at (%d,%d)", hit.Triangle, p.X, p.Y)
	} else {
		v.view.Status = fmt.Sprintf("painted unused pixel (%d,%d)", p.X, p.Y)
	}
}

func (v *viewer) setColor(hex string) {
	if err := v.session.SetActiveColor(hex); err != nil {
		v.view.Status = err.Error()
		return
	}
	v.view.Status = "color " + hex
}

func (v *viewer) growBrush(delta int) {
	if err := v.session.SetBrushSize(v.session.BrushSize() + delta); err != nil {
		return
	}
	v.view.Status = fmt.Sprintf("brush %d", v.session.BrushSize())
}

func (v *viewer) bake() {
	if err := v.session.Bake(); err != nil {
		v.view.Status = "bake failed: " + err.Error()
		return
	}
	v.view.Status = "atlas re-baked"
}

func (v *viewer) export() {
	paths, err := exportSession(v.session, v.cfg, v.name)
	if err != nil {
		v.view.Status = "export failed: " + err.Error()
		logger.Error("export failed", zap.Error(err))
		return
	}
	v.view.Status = "exported " + filepath.Dir(paths[0])
}

func (v *viewer) screenshot() {
	path := filepath.Join(v.cfg.Export.Dir, fmt.Sprintf("%s_screenshot_%s.png", v.name, time.Now().Format("20060102_150405")))
	if err := asset.SavePNG(path, v.fb.ToImage()); err != nil {
		v.view.Status = "screenshot failed: " + err.Error()
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	v.view.Status = "saved " + filepath.Base(path)
}

func (v *viewer) zoom(delta float64) {
	v.cameraZ = math.Max(1, math.Min(20, v.cameraZ+delta))
	v.camera.SetPosition(math3d.V3(0, 0, v.cameraZ))
}

// readEvents turns terminal input into actions for the frame loop.
func (v *viewer) readEvents(ctx context.Context, cancel context.CancelFunc) {
	send := func(fn func()) bool {
		select {
		case v.actions <- fn:
			return true
		case <-ctx.Done():
			return false
		}
	}

	const impulse = 0.05
	var painting, rotating bool
	var lastX, lastY int

	for ev := range v.term.Events() {
		var fn func()

		switch ev := ev.(type) {
		case uv.WindowSizeEvent:
			w, h := ev.Width, ev.Height
			fn = func() {
				v.term.Erase()
				v.term.Resize(w, h)
				v.resize(w, h)
			}

		case uv.KeyPressEvent:
			switch {
			case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
				cancel()
				return
			case ev.MatchString("w", "up"):
				fn = func() { v.rotation.ApplyImpulse(-impulse, 0) }
			case ev.MatchString("s", "down"):
				fn = func() { v.rotation.ApplyImpulse(impulse, 0) }
			case ev.MatchString("a", "left"):
				fn = func() { v.rotation.ApplyImpulse(0, -impulse) }
			case ev.MatchString("d", "right"):
				fn = func() { v.rotation.ApplyImpulse(0, impulse) }
			case ev.MatchString("space"):
				p, y := (rand.Float64()-0.5)*0.5, (rand.Float64()-0.5)*0.5
				fn = func() { v.rotation.ApplyImpulse(p, y) }
			case ev.MatchString("r"):
				fn = v.rotation.Reset
			case ev.MatchString("1", "2", "3", "4", "5", "6", "7", "8"):
				hex := palette[ev.Code-'1']
				fn = func() { v.setColor(hex) }
			case ev.MatchString("["):
				fn = func() { v.growBrush(-1) }
			case ev.MatchString("]"):
				fn = func() { v.growBrush(1) }
			case ev.MatchString("b"):
				fn = v.bake
			case ev.MatchString("v"):
				fn = func() { v.view.Mode = v.view.Mode.Next() }
			case ev.MatchString("x"):
				fn = func() { v.view.Wireframe = !v.view.Wireframe }
			case ev.MatchString("p"):
				fn = v.export
			case ev.MatchString("c"):
				fn = v.screenshot
			case ev.MatchString("+", "="):
				fn = func() { v.zoom(-0.5) }
			case ev.MatchString("-", "_"):
				fn = func() { v.zoom(0.5) }
			case ev.MatchString("?"), ev.MatchString("shift+/"):
				fn = func() { v.view.ShowHUD = !v.view.ShowHUD }
			}

		case uv.MouseClickEvent:
			col, row := ev.X, ev.Y
			switch ev.Button {
			case uv.MouseLeft:
				painting = true
				fn = func() { v.paintAt(col, row) }
			case uv.MouseRight:
				rotating = true
				lastX, lastY = ev.X, ev.Y
			}

		case uv.MouseReleaseEvent:
			painting, rotating = false, false

		case uv.MouseMotionEvent:
			col, row := ev.X, ev.Y
			switch {
			case painting:
				fn = func() { v.paintAt(col, row) }
			case rotating:
				dx, dy := ev.X-lastX, ev.Y-lastY
				lastX, lastY = ev.X, ev.Y
				fn = func() { v.rotation.ApplyImpulse(float64(dy)*0.03, float64(dx)*0.03) }
			}

		case uv.MouseWheelEvent:
			switch ev.Button {
			case uv.MouseWheelUp:
				fn = func() { v.zoom(-0.5) }
			case uv.MouseWheelDown:
				fn = func() { v.zoom(0.5) }
			}
		}

		if fn != nil && !send(fn) {
			return
		}
	}
}

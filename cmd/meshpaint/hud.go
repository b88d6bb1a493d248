package main

import (
	"fmt"
	"image/color"
	"time"
)

// HUD renders an overlay with session info and the active brush.
type HUD struct {
	name      string
	triangles int
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

func NewHUD(name string, triangles int) *HUD {
	return &HUD{
		name:      name,
		triangles: triangles,
		fpsTime:   time.Now(),
	}
}

// UpdateFPS updates the FPS counter (call once per frame).
func (h *HUD) UpdateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// BrushInfo is what the HUD shows about the current brush.
type BrushInfo struct {
	Color color.RGBA
	Size  int
	Atlas string // e.g. "24x6"
}

// Render draws the HUD directly to the terminal with ANSI escapes.
func (h *HUD) Render(width, height int, view *ViewState, brush BrushInfo) {
	const (
		reset     = "\x1b[0m"
		bold      = "\x1b[1m"
		dim       = "\x1b[2m"
		bgBlack   = "\x1b[40m"
		fgWhite   = "\x1b[97m"
		fgGreen   = "\x1b[92m"
		fgYellow  = "\x1b[93m"
		fgCyan    = "\x1b[96m"
		clearLine = "\x1b[2K"
	)

	moveTo := func(row, col int) string {
		return fmt.Sprintf("\x1b[%d;%dH", row, col)
	}

	// Always clear the HUD rows so toggling off works.
	fmt.Print(moveTo(1, 1) + clearLine)
	fmt.Print(moveTo(height, 1) + clearLine)

	if !view.ShowHUD {
		return
	}

	fmt.Printf("%s%s%s %.0f FPS %s", moveTo(1, 1), bgBlack, fgGreen, h.fps, reset)

	titleCol := max((width-len(h.name)-2)/2, 1)
	fmt.Print(moveTo(1, titleCol) + fmt.Sprintf("%s%s%s %s %s", bold, bgBlack, fgWhite, h.name, reset))

	info := fmt.Sprintf(" %d tris  atlas %s ", h.triangles, brush.Atlas)
	fmt.Print(moveTo(1, max(width-len(info), 1)) + fmt.Sprintf("%s%s%s%s%s", bgBlack, fgCyan, bold, info, reset))

	// Bottom left: swatch, brush and view.
	swatch := fmt.Sprintf("\x1b[48;2;%d;%d;%dm   %s", brush.Color.R, brush.Color.G, brush.Color.B, reset)
	checkWire := "[ ]"
	if view.Wireframe {
		checkWire = "[✓]"
	}
	left := fmt.Sprintf("%s %s%s #%02x%02x%02x  brush %d  view %s  %s wire %s",
		swatch, bgBlack, fgWhite, brush.Color.R, brush.Color.G, brush.Color.B,
		brush.Size, view.Mode, checkWire, reset)
	fmt.Print(moveTo(height, 1) + left)

	if view.Status != "" {
		status := fmt.Sprintf("%s%s%s %s %s", bgBlack, dim, fgYellow, view.Status, reset)
		fmt.Print(moveTo(height, max(width-len(view.Status)-2, 1)) + status)
	}
}

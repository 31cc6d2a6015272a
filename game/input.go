package game

import (
	"fmt"
	"log/slog"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flowtrace/rng"
)

// keyBindings are the one-shot actions of the live view.
var keyBindings = []struct {
	key int32
	run func(*Game)
}{
	{rl.KeyF11, func(*Game) { rl.ToggleFullscreen() }},
	{rl.KeySpace, func(g *Game) { g.paused = !g.paused }},
	{rl.KeyR, func(g *Game) { logErr("restart failed", g.Restart()) }},
	{rl.KeyN, func(g *Game) { logErr("reseed failed", g.Reseed(rng.NewSeed())) }},
	{rl.KeyF, func(g *Game) { g.showField = !g.showField }},
	{rl.KeyTab, func(g *Game) { g.showPerf = !g.showPerf }},
	{rl.KeyS, (*Game).startExport},
	{rl.KeyP, (*Game).snapshot},
	{rl.KeyHome, func(g *Game) { g.camera.Reset() }},
	{rl.KeyEqual, func(g *Game) { g.camera.ZoomBy(1.25) }},
	{rl.KeyKpAdd, func(g *Game) { g.camera.ZoomBy(1.25) }},
	{rl.KeyMinus, func(g *Game) { g.camera.ZoomBy(0.8) }},
	{rl.KeyKpSubtract, func(g *Game) { g.camera.ZoomBy(0.8) }},
}

// panKeys pan while held, in screen pixels per frame.
var panKeys = []struct {
	key    int32
	dx, dy float32
}{
	{rl.KeyRight, 8, 0},
	{rl.KeyLeft, -8, 0},
	{rl.KeyDown, 0, 8},
	{rl.KeyUp, 0, -8},
}

func logErr(msg string, err error) {
	if err != nil {
		slog.Error(msg, "error", err)
	}
}

func (g *Game) handleInput() {
	g.handleResize()

	for _, b := range keyBindings {
		if rl.IsKeyPressed(b.key) {
			b.run(g)
		}
	}

	for _, p := range panKeys {
		if rl.IsKeyDown(p.key) {
			g.camera.Pan(p.dx, p.dy)
		}
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		g.camera.Pan(-d.X, -d.Y)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}
}

func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w, h := float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth, g.screenHeight = w, h
	g.camera.Resize(w, h)
	g.perfPanel.SetPosition(int32(w)-230, 10)
}

// exportPath names an output file after the session seed and strategy.
func (g *Game) exportPath(ext string) string {
	dir := g.opts.ExportDir
	if dir == "" {
		dir = "."
	}
	name := fmt.Sprintf("flow-%08d-%s.%s", g.session.Seed(), g.session.Field().Strategy(), ext)
	return filepath.Join(dir, name)
}

// snapshot saves what has been drawn so far as PNG.
func (g *Game) snapshot() {
	path := g.exportPath("png")
	if err := g.SavePNG(path); err != nil {
		slog.Error("snapshot failed", "path", path, "error", err)
		g.status = "snapshot failed"
		return
	}
	slog.Info("saved snapshot", "path", path, "frame", g.session.Frame())
	g.status = "saved " + filepath.Base(path)
}

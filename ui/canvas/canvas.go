// Package canvas provides the world viewport widget: composited scene
// display, panning, and tool interaction routing.
package canvas

import (
	"image"
	"image/color"
	"image/draw"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"mapforge/internal/app"
	"mapforge/internal/render"
	"mapforge/internal/tool"
	"mapforge/internal/view"
	"mapforge/pkg/geometry"
)

var outlineColor = color.RGBA{R: 80, G: 180, B: 255, A: 255}

// WorldCanvas displays the visible slice of the world and routes pointer
// events into the application state. The pointer tool pans when the drag
// starts on empty ground and moves a layer when it starts on one.
type WorldCanvas struct {
	widget.BaseWidget

	state  *app.State
	raster *fynecanvas.Raster

	dragging bool
	panning  bool
	lastDrag fyne.Position
}

// New creates the canvas bound to the application state.
func New(state *app.State) *WorldCanvas {
	wc := &WorldCanvas{state: state}
	wc.raster = fynecanvas.NewRaster(wc.draw)
	wc.raster.ScaleMode = fynecanvas.ImageScalePixels
	wc.ExtendBaseWidget(wc)
	return wc
}

func (wc *WorldCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(wc.raster)
}

// draw composites the visible world region plus transient overlays.
// Called by fyne whenever the raster needs pixels.
func (wc *WorldCanvas) draw(w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	wc.state.SetViewportSize(w, h)

	v := wc.state.View()
	visible := view.Visible(v, float64(w), float64(h))
	out := render.Region(wc.state.Scene(), visible, render.BackgroundOpaque)

	if m := wc.state.BrushMask(); m != nil {
		draw.Draw(out, out.Bounds(), m, m.Bounds().Min, draw.Over)
	}
	if sel, ok := wc.state.Selection(); ok {
		drawRectOutline(out, view.ScreenRect(sel, v))
	}
	return out
}

// worldPoint maps a widget-local event position into world space.
func (wc *WorldCanvas) worldPoint(pos fyne.Position) geometry.Point2D {
	p := geometry.NewPoint2D(float64(pos.X), float64(pos.Y))
	return view.ScreenToWorld(p, wc.state.View())
}

// Dragged routes a drag through the tool machine; a pointer drag that
// grabs nothing pans the viewport instead.
func (wc *WorldCanvas) Dragged(ev *fyne.DragEvent) {
	if !wc.dragging {
		wc.dragging = true
		wc.lastDrag = ev.Position
		wc.state.PointerDown(wc.worldPoint(ev.Position))
		wc.panning = wc.state.Tool() == tool.Pointer && !wc.state.Interacting()
		wc.Refresh()
		return
	}

	if wc.panning {
		wc.state.Pan(float64(wc.lastDrag.X-ev.Position.X), float64(wc.lastDrag.Y-ev.Position.Y))
	} else {
		wc.state.PointerMove(wc.worldPoint(ev.Position))
	}
	wc.lastDrag = ev.Position
	wc.Refresh()
}

// DragEnd commits the interaction.
func (wc *WorldCanvas) DragEnd() {
	if !wc.dragging {
		return
	}
	wc.dragging = false
	if !wc.panning {
		wc.state.PointerUp(wc.worldPoint(wc.lastDrag))
	}
	wc.panning = false
	wc.Refresh()
}

// Tapped treats a click as a minimal press-release pair, so single
// clicks still place brush dabs and erase spots.
func (wc *WorldCanvas) Tapped(ev *fyne.PointEvent) {
	p := wc.worldPoint(ev.Position)
	wc.state.PointerDown(p)
	wc.state.PointerUp(p)
	wc.Refresh()
}

// Scrolled pans the viewport with the wheel.
func (wc *WorldCanvas) Scrolled(ev *fyne.ScrollEvent) {
	wc.state.Pan(float64(-ev.Scrolled.DX), float64(-ev.Scrolled.DY))
	wc.Refresh()
}

// drawRectOutline paints a one-pixel selection border, clamped to the
// buffer.
func drawRectOutline(dst *image.RGBA, r geometry.Rect) {
	x0, y0 := int(r.X), int(r.Y)
	x1, y1 := int(r.X+r.Width)-1, int(r.Y+r.Height)-1
	b := dst.Bounds()

	set := func(x, y int) {
		if x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y {
			dst.SetRGBA(x, y, outlineColor)
		}
	}
	for x := x0; x <= x1; x++ {
		set(x, y0)
		set(x, y1)
	}
	for y := y0; y <= y1; y++ {
		set(x0, y)
		set(x1, y)
	}
}

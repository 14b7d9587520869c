// Package view converts between world and screen coordinates.
//
// The viewport is defined by the world position of its top-left corner;
// screen space is simply world space minus that offset. Zooming is handled
// by the UI canvas, not here.
package view

import (
	"mapforge/pkg/geometry"
)

// View holds the world-space offset of the viewport's top-left corner.
type View struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pan returns the view moved by (dx, dy) world units.
func (v View) Pan(dx, dy float64) View {
	return View{X: v.X + dx, Y: v.Y + dy}
}

// Offset returns the view offset as a point.
func (v View) Offset() geometry.Point2D {
	return geometry.Point2D{X: v.X, Y: v.Y}
}

// WorldToScreen maps a world-space point into viewport-local coordinates.
func WorldToScreen(p geometry.Point2D, v View) geometry.Point2D {
	return p.Sub(v.Offset())
}

// ScreenToWorld maps a viewport-local point back into world space.
func ScreenToWorld(p geometry.Point2D, v View) geometry.Point2D {
	return p.Add(v.Offset())
}

// WorldRect maps a viewport-local rectangle into world space.
func WorldRect(r geometry.Rect, v View) geometry.Rect {
	return r.Translate(v.X, v.Y)
}

// ScreenRect maps a world-space rectangle into viewport-local coordinates.
func ScreenRect(r geometry.Rect, v View) geometry.Rect {
	return r.Translate(-v.X, -v.Y)
}

// Visible returns the world rectangle covered by a viewport of the
// given pixel size.
func Visible(v View, width, height float64) geometry.Rect {
	return WorldRect(geometry.NewRect(0, 0, width, height), v)
}

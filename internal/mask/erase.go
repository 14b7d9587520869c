// Package mask implements interactive raster mutation: the subtractive
// eraser working on a layer's own pixels and the additive screen-space
// brush mask consumed by generation.
package mask

import (
	"errors"
	"image"

	"mapforge/internal/pixel"
	"mapforge/internal/scene"
	"mapforge/pkg/geometry"
)

// ErrNoPixels is returned when an erase session is started on a layer
// without a decoded pixel buffer.
var ErrNoPixels = errors.New("mask: layer has no pixel data")

// Erase is an in-progress eraser edit. It owns a copy of the target
// layer's native-resolution pixels; the layer itself is untouched until
// the caller commits Result through the scene. Only one session should
// exist at a time; selecting another layer or switching tools aborts
// the uncommitted session.
type Erase struct {
	layerID   string
	buf       *image.RGBA
	placement geometry.Rect
	scaleX    float64 // native pixels per world unit
	scaleY    float64
	radius    float64 // brush radius in world units
	dirty     bool
}

// StartErase opens an eraser session on a layer. toolSize is the stroke
// diameter in world units.
func StartErase(l *scene.Layer, toolSize float64) (*Erase, error) {
	if l.Img == nil {
		return nil, ErrNoPixels
	}
	nw, nh := l.NativeSize()
	if nw == 0 || nh == 0 || l.Rect.Empty() {
		return nil, ErrNoPixels
	}
	return &Erase{
		layerID:   l.ID,
		buf:       pixel.ToRGBA(l.Img),
		placement: l.Rect,
		scaleX:    float64(nw) / l.Rect.Width,
		scaleY:    float64(nh) / l.Rect.Height,
		radius:    toolSize / 2,
	}, nil
}

// LayerID returns the id of the layer under edit.
func (e *Erase) LayerID() string {
	return e.layerID
}

// Dirty reports whether any stroke has touched the buffer.
func (e *Erase) Dirty() bool {
	return e.dirty
}

// Stroke zeroes the alpha of a filled circle around a world-space
// point, mapped into the layer's local pixel space with placement
// scaling applied.
func (e *Erase) Stroke(p geometry.Point2D) {
	cx := (p.X - e.placement.X) * e.scaleX
	cy := (p.Y - e.placement.Y) * e.scaleY
	r := e.radius * e.scaleX

	stampCircle(e.buf, cx, cy, r, func(buf *image.RGBA, x, y int) {
		i := buf.PixOffset(x, y)
		if buf.Pix[i+3] != 0 {
			buf.Pix[i+3] = 0
			e.dirty = true
		}
	})
}

// Result returns the mutated buffer for committing via Scene.SetImage.
func (e *Erase) Result() *image.RGBA {
	return e.buf
}

// stampCircle invokes set for every buffer pixel inside the circle.
func stampCircle(buf *image.RGBA, cx, cy, r float64, set func(*image.RGBA, int, int)) {
	if r <= 0 {
		return
	}
	b := buf.Bounds()
	minX := clampInt(int(cx-r), b.Min.X, b.Max.X)
	maxX := clampInt(int(cx+r)+1, b.Min.X, b.Max.X)
	minY := clampInt(int(cy-r), b.Min.Y, b.Max.Y)
	maxY := clampInt(int(cy+r)+1, b.Min.Y, b.Max.Y)

	r2 := r * r
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r2 {
				set(buf, x, y)
			}
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package mask

import (
	"image"

	"mapforge/pkg/colorutil"
	"mapforge/pkg/geometry"
)

// Brush is the transient screen-space paint mask. It is sized to the
// viewport, not to any layer, and painted in the semi-transparent
// marker color, which generation uses as a masking hint rather than
// final pixels.
type Brush struct {
	buf    *image.RGBA
	radius float64
	dirty  bool
}

// NewBrush creates an empty viewport-sized mask. toolSize is the stroke
// diameter in screen pixels.
func NewBrush(width, height int, toolSize float64) *Brush {
	return &Brush{
		buf:    image.NewRGBA(image.Rect(0, 0, width, height)),
		radius: toolSize / 2,
	}
}

// Stroke paints a filled circle of the brush hint color at a
// viewport-local point.
func (b *Brush) Stroke(p geometry.Point2D) {
	hint := colorutil.BrushHint
	stampCircle(b.buf, p.X, p.Y, b.radius, func(buf *image.RGBA, x, y int) {
		i := buf.PixOffset(x, y)
		buf.Pix[i] = hint.R
		buf.Pix[i+1] = hint.G
		buf.Pix[i+2] = hint.B
		buf.Pix[i+3] = hint.A
		b.dirty = true
	})
}

// Empty reports whether nothing has been painted since creation or the
// last Clear.
func (b *Brush) Empty() bool {
	return !b.dirty
}

// Mask returns the current mask buffer. Callers must not retain it
// across a Clear.
func (b *Brush) Mask() *image.RGBA {
	return b.buf
}

// Clear resets the mask to fully transparent. Called on tool switch,
// explicit cancel, or after a successful generation.
func (b *Brush) Clear() {
	for i := range b.buf.Pix {
		b.buf.Pix[i] = 0
	}
	b.dirty = false
}

// Package render rasterizes scenes into RGBA pixel buffers.
//
// The compositor is the single source of truth for flattening layers:
// viewport display, generation context capture, undo-safe exports and
// stitch strips all go through Region or Full.
package render

import (
	"image"
	"image/draw"
	"log/slog"
	"sort"

	xdraw "golang.org/x/image/draw"

	"mapforge/internal/scene"
	"mapforge/pkg/colorutil"
	"mapforge/pkg/geometry"
)

// Background selects the fill of the destination buffer before layers
// are composited.
type Background int

const (
	// BackgroundOpaque fills with opaque black. Used for generation
	// context capture, where the model must not see undefined pixels.
	BackgroundOpaque Background = iota
	// BackgroundTransparent leaves the buffer fully transparent.
	// Used for export.
	BackgroundTransparent
)

// Region composites the visible layers of a scene into a buffer of
// rect's dimensions. Layers are drawn in ascending Z; layers sharing a
// Z value draw in sequence order, so the later layer's opaque pixels
// win. Layers outside rect are skipped.
func Region(s scene.Scene, rect geometry.Rect, bg Background) *image.RGBA {
	w := int(rect.Width + 0.5)
	h := int(rect.Height + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	if bg == BackgroundOpaque {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(colorutil.Black), image.Point{}, draw.Src)
	}

	for _, l := range sortForRender(s) {
		blitLayer(dst, l, rect)
	}
	return dst
}

// Full composites every visible layer into a transparent-background
// buffer covering their joint bounds. With no visible layers it returns
// a minimal transparent buffer instead of failing.
func Full(s scene.Scene) *image.RGBA {
	bounds := s.Bounds()
	if bounds.Empty() {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	return Region(s, bounds, BackgroundTransparent)
}

// sortForRender filters to visible layers and stable-sorts ascending
// by Z. Stability is what preserves the documented equal-Z tie-break.
func sortForRender(s scene.Scene) []*scene.Layer {
	layers := make([]*scene.Layer, 0, s.Len())
	for _, l := range s.Layers() {
		if l.Visible {
			layers = append(layers, l)
		}
	}
	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].Z < layers[j].Z
	})
	return layers
}

// blitLayer source-over composites the part of a layer overlapping
// target into dst, scaling when the native resolution differs from the
// placement size.
func blitLayer(dst *image.RGBA, l *scene.Layer, target geometry.Rect) {
	if l.Img == nil {
		// Decode-failure degradation: a layer without pixels is blank.
		slog.Debug("render: skipping layer without pixels", "layer", l.ID, "name", l.Name)
		return
	}

	inter := l.Rect.Intersection(target)
	if inter.Empty() {
		return
	}

	nativeW, nativeH := l.NativeSize()
	if nativeW == 0 || nativeH == 0 || l.Rect.Width <= 0 || l.Rect.Height <= 0 {
		return
	}

	dr := image.Rect(
		int(inter.X-target.X+0.5),
		int(inter.Y-target.Y+0.5),
		int(inter.X-target.X+inter.Width+0.5),
		int(inter.Y-target.Y+inter.Height+0.5),
	)

	// Map the overlapped world region back into native pixel space.
	sx := float64(nativeW) / l.Rect.Width
	sy := float64(nativeH) / l.Rect.Height
	sr := image.Rect(
		int((inter.X-l.Rect.X)*sx+0.5),
		int((inter.Y-l.Rect.Y)*sy+0.5),
		int((inter.X-l.Rect.X+inter.Width)*sx+0.5),
		int((inter.Y-l.Rect.Y+inter.Height)*sy+0.5),
	)
	sr = sr.Add(l.Img.Bounds().Min).Intersect(l.Img.Bounds())

	if sr.Dx() == dr.Dx() && sr.Dy() == dr.Dy() {
		draw.Draw(dst, dr, l.Img, sr.Min, draw.Over)
		return
	}
	xdraw.ApproxBiLinear.Scale(dst, dr, l.Img, sr, xdraw.Over, nil)
}

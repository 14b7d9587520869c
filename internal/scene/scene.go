package scene

import (
	"image"

	"mapforge/pkg/geometry"
)

// Scene is an ordered, immutable set of layers.
//
// Sequence order is preserved across mutations so that equal-Z render
// ties stay stable and undo diffing remains identity-based. Rendering
// order is governed by Z, not sequence.
type Scene struct {
	layers []*Layer
}

// New returns an empty scene.
func New() Scene {
	return Scene{}
}

// Len returns the number of layers.
func (s Scene) Len() int {
	return len(s.layers)
}

// Layers returns the layers in sequence order. The returned slice must
// not be modified.
func (s Scene) Layers() []*Layer {
	return s.layers
}

// Find returns the layer with the given id, or nil.
func (s Scene) Find(id string) *Layer {
	for _, l := range s.layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Add returns a new scene with the layer appended.
func (s Scene) Add(l *Layer) Scene {
	out := make([]*Layer, len(s.layers)+1)
	copy(out, s.layers)
	out[len(s.layers)] = l
	return Scene{layers: out}
}

// Remove returns a new scene without the layer. Unknown ids are a no-op.
func (s Scene) Remove(id string) Scene {
	out := make([]*Layer, 0, len(s.layers))
	for _, l := range s.layers {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return Scene{layers: out}
}

// SetVisible returns a new scene with the layer's visibility changed.
func (s Scene) SetVisible(id string, visible bool) Scene {
	return s.replace(id, func(l *Layer) {
		l.Visible = visible
	})
}

// SetPosition returns a new scene with the layer moved to (x, y).
func (s Scene) SetPosition(id string, x, y float64) Scene {
	return s.replace(id, func(l *Layer) {
		l.Rect.X = x
		l.Rect.Y = y
	})
}

// SetImage returns a new scene with the layer's pixel buffer replaced.
func (s Scene) SetImage(id string, img image.Image) Scene {
	return s.replace(id, func(l *Layer) {
		l.Img = img
	})
}

// replace clones the matching layer, applies fn to the clone, and
// returns a scene sharing every other layer. Unknown ids return the
// receiver unchanged.
func (s Scene) replace(id string, fn func(*Layer)) Scene {
	for i, l := range s.layers {
		if l.ID != id {
			continue
		}
		out := make([]*Layer, len(s.layers))
		copy(out, s.layers)
		c := l.clone()
		fn(c)
		out[i] = c
		return Scene{layers: out}
	}
	return s
}

// BaseLayers returns the base (tile) layers in sequence order.
func (s Scene) BaseLayers() []*Layer {
	var out []*Layer
	for _, l := range s.layers {
		if l.Kind == KindBase {
			out = append(out, l)
		}
	}
	return out
}

// Bounds returns the union of all visible layer placements. A scene
// with no visible layers yields a zero Rect.
func (s Scene) Bounds() geometry.Rect {
	var bounds geometry.Rect
	first := true
	for _, l := range s.layers {
		if !l.Visible {
			continue
		}
		if first {
			bounds = l.Rect
			first = false
		} else {
			bounds = bounds.Union(l.Rect)
		}
	}
	return bounds
}

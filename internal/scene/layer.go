// Package scene provides the layer store and its undo history.
//
// A Scene is an ordered set of placed raster layers. Every mutation
// returns a new Scene that shares unmodified layers with its parent, so
// History can retain full snapshots cheaply by reference. Layers already
// placed in a scene are treated as immutable; operations that change a
// layer replace it with a copy.
package scene

import (
	"image"

	"github.com/google/uuid"

	"mapforge/pkg/geometry"
)

// Kind distinguishes ground tiles from placed assets.
type Kind int

const (
	// KindBase is a full background tile aligned to the world grid.
	// Base layers are not draggable.
	KindBase Kind = iota
	// KindObject is an arbitrarily sized, movable placed asset.
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindBase:
		return "base"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Layer is a single placed raster layer.
//
// Img holds pixels at native resolution; Rect is the world placement and
// may differ in size from the native resolution, in which case the
// compositor scales on blit. A nil Img renders as blank (decode-failure
// degradation).
type Layer struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Kind    Kind          `json:"kind"`
	Rect    geometry.Rect `json:"rect"`
	Visible bool          `json:"visible"`
	Z       int           `json:"z"`

	Img image.Image `json:"-"`
}

// NewLayer creates a visible layer with a fresh id.
func NewLayer(name string, kind Kind, img image.Image, rect geometry.Rect, z int) *Layer {
	return &Layer{
		ID:      uuid.NewString(),
		Name:    name,
		Kind:    kind,
		Rect:    rect,
		Visible: true,
		Z:       z,
		Img:     img,
	}
}

// NativeSize returns the pixel dimensions of the stored image.
func (l *Layer) NativeSize() (w, h int) {
	if l.Img == nil {
		return 0, 0
	}
	b := l.Img.Bounds()
	return b.Dx(), b.Dy()
}

// Movable reports whether direct manipulation may reposition the layer.
func (l *Layer) Movable() bool {
	return l.Kind == KindObject
}

// clone returns a shallow copy; the pixel buffer is shared.
func (l *Layer) clone() *Layer {
	c := *l
	return &c
}

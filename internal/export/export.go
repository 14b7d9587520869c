// Package export flattens scenes into shareable artifacts: a single
// PNG of the whole world and a zip archive with one PNG per layer.
package export

import (
	"archive/zip"
	"fmt"
	"image/png"
	"io"
	"strings"

	"mapforge/internal/render"
	"mapforge/internal/scene"
)

// WritePNG writes the flattened full-scene raster.
func WritePNG(w io.Writer, s scene.Scene) error {
	if err := png.Encode(w, render.Full(s)); err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}
	return nil
}

// WriteArchive writes a zip containing the flattened scene plus each
// visible layer as its own PNG, named by z-order, sanitized layer name
// and an id fragment so entries stay unique and sortable.
func WriteArchive(w io.Writer, s scene.Scene) error {
	zw := zip.NewWriter(w)

	flat, err := zw.Create("scene.png")
	if err != nil {
		return fmt.Errorf("failed to create archive entry: %w", err)
	}
	if err := png.Encode(flat, render.Full(s)); err != nil {
		return fmt.Errorf("failed to encode scene: %w", err)
	}

	for _, l := range s.Layers() {
		if !l.Visible || l.Img == nil {
			continue
		}
		entry, err := zw.Create(LayerFileName(l))
		if err != nil {
			return fmt.Errorf("failed to create archive entry: %w", err)
		}
		if err := png.Encode(entry, l.Img); err != nil {
			return fmt.Errorf("failed to encode layer %s: %w", l.ID, err)
		}
	}

	return zw.Close()
}

// LayerFileName builds the archive entry name for a layer.
func LayerFileName(l *scene.Layer) string {
	id := l.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("layers/%03d_%s_%s.png", l.Z, sanitizeName(l.Name), id)
}

// sanitizeName keeps letters, digits, dash and underscore; everything
// else collapses to underscores.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "layer"
	}
	return b.String()
}

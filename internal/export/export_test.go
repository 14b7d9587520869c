package export

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"mapforge/internal/scene"
	"mapforge/pkg/geometry"
)

func newTestScene() (scene.Scene, *scene.Layer, *scene.Layer) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	ground := scene.NewLayer("ground tile", scene.KindBase, img, geometry.NewRect(0, 0, 8, 8), 0)
	prop := scene.NewLayer("old/oak: tree", scene.KindObject, img, geometry.NewRect(4, 4, 8, 8), 7)
	return scene.New().Add(ground).Add(prop), ground, prop
}

func TestWritePNG(t *testing.T) {
	s, _, _ := newTestScene()
	var buf bytes.Buffer
	if err := WritePNG(&buf, s); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 12 {
		t.Errorf("flattened bounds = %v, want 12x12 union", b)
	}
}

func TestWriteArchive(t *testing.T) {
	s, ground, prop := newTestScene()
	hidden := scene.NewLayer("secret", scene.KindObject,
		image.NewRGBA(image.Rect(0, 0, 4, 4)), geometry.NewRect(0, 0, 4, 4), 2)
	s = s.Add(hidden).SetVisible(hidden.ID, false)

	var buf bytes.Buffer
	if err := WriteArchive(&buf, s); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("output is not a zip: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["scene.png"] {
		t.Error("archive missing flattened scene.png")
	}
	if !names[LayerFileName(ground)] {
		t.Errorf("archive missing ground entry %s", LayerFileName(ground))
	}
	if !names[LayerFileName(prop)] {
		t.Errorf("archive missing prop entry %s", LayerFileName(prop))
	}
	if names[LayerFileName(hidden)] {
		t.Error("hidden layer must not be exported")
	}
}

func TestLayerFileName(t *testing.T) {
	_, _, prop := newTestScene()
	name := LayerFileName(prop)
	if !strings.HasPrefix(name, "layers/007_old_oak__tree_") {
		t.Errorf("name = %q, want sanitized z-prefixed entry", name)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Errorf("name = %q, want .png suffix", name)
	}
	if strings.ContainsAny(name[len("layers/"):], "/:"+" ") {
		t.Errorf("name %q contains unsanitized characters", name)
	}
}

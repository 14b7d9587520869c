// Package project provides project file handling and persistence.
//
// A project is a versioned JSON manifest (.mapforge) describing the
// view offset and every layer's placement, with each layer's pixels
// stored as a sibling PNG named by layer id.
package project

import (
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"mapforge/internal/pixel"
	"mapforge/internal/render"
	"mapforge/internal/scene"
	"mapforge/internal/view"
	"mapforge/pkg/geometry"
)

// File represents a map editor project file (.mapforge).
type File struct {
	Version  int       `json:"version"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`

	View view.View `json:"view"`

	Layers []LayerEntry `json:"layers"`
}

// LayerEntry is the manifest record for one layer; pixels live in the
// referenced image file, relative to the project file.
type LayerEntry struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Kind      string        `json:"kind"`
	Rect      geometry.Rect `json:"rect"`
	Visible   bool          `json:"visible"`
	Z         int           `json:"z"`
	ImagePath string        `json:"image"`
}

// New creates an empty project.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:  1,
		Name:     name,
		Created:  now,
		Modified: now,
	}
}

// Save writes the manifest and every layer's pixels. The image
// directory sits next to the project file.
func Save(path string, s scene.Scene, v view.View, name string) error {
	dir := filepath.Dir(path)
	imgDir := filepath.Join(dir, "layers")
	if err := os.MkdirAll(imgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create layer directory: %w", err)
	}

	f := New(name)
	f.View = v

	for _, l := range s.Layers() {
		rel := filepath.Join("layers", l.ID+".png")
		entry := LayerEntry{
			ID:        l.ID,
			Name:      l.Name,
			Kind:      l.Kind.String(),
			Rect:      l.Rect,
			Visible:   l.Visible,
			Z:         l.Z,
			ImagePath: rel,
		}
		if l.Img != nil {
			out, err := os.Create(filepath.Join(dir, rel))
			if err != nil {
				return fmt.Errorf("failed to create layer image: %w", err)
			}
			err = png.Encode(out, l.Img)
			if cerr := out.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("failed to write layer image: %w", err)
			}
		}
		f.Layers = append(f.Layers, entry)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a project manifest and reconstructs the scene. Layer
// images decode concurrently; a layer whose image fails to decode loads
// as blank rather than failing the project.
func Load(path string) (scene.Scene, view.View, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scene.New(), view.View{}, fmt.Errorf("failed to read project: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return scene.New(), view.View{}, fmt.Errorf("failed to parse project: %w", err)
	}

	dir := filepath.Dir(path)
	paths := make([]string, len(f.Layers))
	for i, e := range f.Layers {
		paths[i] = filepath.Join(dir, e.ImagePath)
	}
	images := render.LoadAll(paths)

	s := scene.New()
	for i, e := range f.Layers {
		l := &scene.Layer{
			ID:      e.ID,
			Name:    e.Name,
			Kind:    parseKind(e.Kind),
			Rect:    e.Rect,
			Visible: e.Visible,
			Z:       e.Z,
		}
		if images[i] != nil {
			l.Img = pixel.ToRGBA(images[i])
		}
		s = s.Add(l)
	}
	return s, f.View, nil
}

func parseKind(s string) scene.Kind {
	if s == "object" {
		return scene.KindObject
	}
	return scene.KindBase
}

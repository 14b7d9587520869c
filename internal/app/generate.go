package app

import (
	"context"
	"fmt"
	"image/draw"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"mapforge/internal/gen"
	"mapforge/internal/pixel"
	"mapforge/internal/render"
	"mapforge/internal/scene"
	"mapforge/internal/stitch"
	"mapforge/internal/view"
	"mapforge/pkg/geometry"
)

// Generation operations. Each one captures its context from an immutable
// scene value, dispatches, and commits only on success; a failed dispatch
// leaves scene and history untouched. The captured snapshot is also the
// commit base, so the context and the commit can never disagree.

// GenerateObject renders the active selection as an opaque context
// image, asks the generator to paint into it, and commits whatever the
// model added as a new object layer covering the selection.
func (s *State) GenerateObject(ctx context.Context, prompt string) (*scene.Layer, error) {
	rect, ok := s.Selection()
	if !ok || rect.Empty() {
		return nil, ErrNoSelection
	}

	s.mu.RLock()
	base := s.working
	cfg := s.cfg
	s.mu.RUnlock()

	contextImg := render.Region(base, rect, render.BackgroundOpaque)

	s.genLog.Append(gen.Record{
		Category:   gen.CategoryObject,
		Prompt:     prompt,
		HasContext: true,
	})
	s.Emit(EventGenerationStarted, prompt)
	out, err := s.generator.Generate(ctx, prompt, contextImg)
	if err != nil {
		s.Emit(EventGenerationComplete, err)
		return nil, fmt.Errorf("object generation failed: %w", err)
	}

	isolated := pixel.DifferenceExtract(contextImg, out, cfg.DifferenceThreshold)
	stats := pixel.DistanceStats(contextImg, out, cfg.DifferenceThreshold)
	s.genLog.AttachStats(&stats)
	slog.Info("object isolated",
		"kept", stats.KeptFraction, "mean_distance", stats.MeanDistance)

	l := scene.NewLayer(layerName(prompt), scene.KindObject, isolated, rect, s.nextZ())
	s.commit(base.Add(l))
	s.ClearSelection()
	s.Emit(EventGenerationComplete, l)
	return l, nil
}

// GenerateBrushObject sends the visible viewport with the brush mask
// overlaid as a hint, then isolates the result by difference against
// the unmasked capture and strips any echoed hint color by chroma key.
func (s *State) GenerateBrushObject(ctx context.Context, prompt string) (*scene.Layer, error) {
	s.mu.RLock()
	base := s.working
	cfg := s.cfg
	v := s.vw
	vpW, vpH := s.viewportW, s.viewportH
	brush := s.brush
	s.mu.RUnlock()

	if brush == nil || brush.Empty() {
		return nil, ErrEmptyMask
	}

	rect := view.Visible(v, float64(vpW), float64(vpH))
	contextImg := render.Region(base, rect, render.BackgroundOpaque)

	hinted := pixel.ToRGBA(contextImg)
	m := brush.Mask()
	draw.Draw(hinted, hinted.Bounds(), m, m.Bounds().Min, draw.Over)

	s.genLog.Append(gen.Record{
		Category:   gen.CategoryObject,
		Prompt:     prompt,
		HasContext: true,
	})
	s.Emit(EventGenerationStarted, prompt)
	out, err := s.generator.Generate(ctx, prompt, hinted)
	if err != nil {
		s.Emit(EventGenerationComplete, err)
		return nil, fmt.Errorf("brush generation failed: %w", err)
	}

	// Difference against the unhinted capture keeps only what the model
	// painted; the chroma pass then drops any hint pixels it echoed.
	isolated := pixel.DifferenceExtract(contextImg, out, cfg.DifferenceThreshold)
	isolated = pixel.ChromaKeyRemove(isolated, pixel.DefaultKey, cfg.ChromaThreshold)
	stats := pixel.DistanceStats(contextImg, out, cfg.DifferenceThreshold)
	s.genLog.AttachStats(&stats)

	l := scene.NewLayer(layerName(prompt), scene.KindObject, isolated, rect, s.nextZ())
	s.commit(base.Add(l))

	s.mu.Lock()
	if s.brush != nil {
		s.brush.Clear()
	}
	s.mu.Unlock()

	s.Emit(EventGenerationComplete, l)
	return l, nil
}

// GenerateBaseTexture asks for a fresh, unconstrained tile texture and
// commits it as a base layer covering tileRect.
func (s *State) GenerateBaseTexture(ctx context.Context, prompt string, tileRect geometry.Rect) (*scene.Layer, error) {
	s.mu.RLock()
	base := s.working
	cfg := s.cfg
	s.mu.RUnlock()

	s.genLog.Append(gen.Record{
		Category: gen.CategoryBaseTexture,
		Prompt:   prompt,
	})
	s.Emit(EventGenerationStarted, prompt)
	out, err := s.generator.Generate(ctx, prompt, nil)
	if err != nil {
		s.Emit(EventGenerationComplete, err)
		return nil, fmt.Errorf("base texture generation failed: %w", err)
	}

	img := pixel.Resample(out, cfg.TileSize, cfg.TileSize)

	l := scene.NewLayer(layerName(prompt), scene.KindBase, img, tileRect, 0)
	s.commit(base.Add(l))
	s.Emit(EventGenerationComplete, l)
	return l, nil
}

// GenerateNeighborTile produces a new base tile at tileRect that lines
// up seamlessly with its existing cardinal neighbors: assemble the
// stitch canvas, dispatch it with an edge instruction, crop the tile
// region back out of the model's output, and commit.
//
// With no neighbors present the stitch adds nothing, so the request
// degrades to a plain base texture.
func (s *State) GenerateNeighborTile(ctx context.Context, prompt string, tileRect geometry.Rect) (*scene.Layer, error) {
	s.mu.RLock()
	base := s.working
	cfg := s.cfg
	s.mu.RUnlock()

	neighbors := stitch.Neighbors(base, tileRect, cfg.NeighborEpsilon)
	present := make(map[stitch.Direction]bool, len(neighbors))
	for d := range neighbors {
		present[d] = true
	}
	plan := stitch.NewPlan(tileRect, present, cfg.TileSize, cfg.StripWidth)
	if plan.Unconstrained() {
		return s.GenerateBaseTexture(ctx, prompt, tileRect)
	}

	canvas := stitch.Assemble(base, plan)
	fullPrompt := prompt + "\n\n" + stitch.Instruction(plan)

	s.genLog.Append(gen.Record{
		Category:   gen.CategorySeamlessTile,
		Prompt:     fullPrompt,
		HasContext: true,
	})
	s.Emit(EventGenerationStarted, prompt)
	out, err := s.generator.Generate(ctx, fullPrompt, canvas)
	if err != nil {
		s.Emit(EventGenerationComplete, err)
		return nil, fmt.Errorf("neighbor tile generation failed: %w", err)
	}

	tileImg := stitch.CropBack(out, plan)
	slog.Info("neighbor tile stitched",
		"neighbors", len(neighbors), "canvas", plan.CanvasSize)

	l := scene.NewLayer(layerName(prompt), scene.KindBase, tileImg, tileRect, 0)
	s.commit(base.Add(l))
	s.Emit(EventGenerationComplete, l)
	return l, nil
}

// nextZ returns a z-order above every existing layer.
func (s *State) nextZ() int {
	z := 0
	for _, l := range s.Scene().Layers() {
		if l.Z >= z {
			z = l.Z + 1
		}
	}
	return z
}

// layerName derives a short layer name from a prompt.
func layerName(prompt string) string {
	name := strings.TrimSpace(prompt)
	if i := strings.IndexAny(name, "\n."); i > 0 {
		name = name[:i]
	}
	if utf8.RuneCountInString(name) > 40 {
		name = string([]rune(name)[:40])
	}
	if name == "" {
		name = "generated"
	}
	return name
}

// baseName strips directory and extension from an image path.
func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

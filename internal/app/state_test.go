package app

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"
	"unicode/utf8"

	"mapforge/internal/config"
	"mapforge/internal/gen"
	"mapforge/internal/scene"
	"mapforge/internal/tool"
	"mapforge/pkg/geometry"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func failingGenerator(err error) gen.Func {
	return func(_ context.Context, _ string, _ image.Image) (image.Image, error) {
		return nil, err
	}
}

func TestAddRemoveUndoRedo(t *testing.T) {
	s := NewState(config.Default(), nil)
	l := scene.NewLayer("rock", scene.KindObject,
		solidImage(4, 4, color.RGBA{A: 255}), geometry.NewRect(0, 0, 4, 4), 1)

	s.AddLayer(l)
	if s.Scene().Len() != 1 {
		t.Fatalf("scene len = %d after add", s.Scene().Len())
	}

	s.Undo()
	if s.Scene().Len() != 0 {
		t.Errorf("undo did not restore the empty scene")
	}
	s.Undo() // at the floor, silent no-op
	if s.Scene().Len() != 0 || s.HistoryCursor() != 0 {
		t.Errorf("undo past the floor moved the cursor")
	}

	s.Redo()
	if s.Scene().Len() != 1 {
		t.Errorf("redo did not restore the layer")
	}

	if err := s.RemoveLayer("no-such-id"); !errors.Is(err, ErrLayerNotFound) {
		t.Errorf("RemoveLayer(unknown) error = %v, want ErrLayerNotFound", err)
	}
	if err := s.RemoveLayer(l.ID); err != nil {
		t.Fatalf("RemoveLayer: %v", err)
	}
	if s.Scene().Len() != 0 {
		t.Errorf("layer still present after remove")
	}
}

func TestLiveDragCommitsOnce(t *testing.T) {
	s := NewState(config.Default(), nil)
	l := scene.NewLayer("crate", scene.KindObject,
		solidImage(8, 8, color.RGBA{R: 200, A: 255}), geometry.NewRect(100, 100, 50, 50), 1)
	s.AddLayer(l)
	before := s.HistoryLen()

	s.PointerDown(geometry.Point2D{X: 110, Y: 110}) // grab offset (10, 10)
	s.PointerMove(geometry.Point2D{X: 150, Y: 130})

	// Mid-drag the working copy tracks the pointer without committing.
	if got := s.Scene().Find(l.ID).Rect.TopLeft(); got != (geometry.Point2D{X: 140, Y: 120}) {
		t.Errorf("mid-drag position = %+v", got)
	}
	if s.HistoryLen() != before {
		t.Fatalf("live drag committed mid-stroke")
	}

	s.PointerMove(geometry.Point2D{X: 200, Y: 180})
	s.PointerUp(geometry.Point2D{X: 210, Y: 190})

	if s.HistoryLen() != before+1 {
		t.Errorf("history grew by %d commits, want 1", s.HistoryLen()-before)
	}
	if got := s.Scene().Find(l.ID).Rect.TopLeft(); got != (geometry.Point2D{X: 200, Y: 180}) {
		t.Errorf("final position = %+v, want (200,180)", got)
	}

	// The pre-drag position is one undo away.
	s.Undo()
	if got := s.Scene().Find(l.ID).Rect.TopLeft(); got != (geometry.Point2D{X: 100, Y: 100}) {
		t.Errorf("undo position = %+v, want (100,100)", got)
	}
}

func TestEraseStrokeCommits(t *testing.T) {
	s := NewState(config.Default(), nil)
	img := solidImage(64, 64, color.RGBA{R: 50, G: 180, B: 90, A: 255})
	l := scene.NewLayer("bush", scene.KindObject, img, geometry.NewRect(0, 0, 64, 64), 1)
	s.AddLayer(l)
	before := s.HistoryLen()

	s.SetTool(tool.Eraser)
	s.PointerDown(geometry.Point2D{X: 8, Y: 8})
	s.PointerUp(geometry.Point2D{X: 8, Y: 8})

	if s.HistoryLen() != before+1 {
		t.Fatalf("erase stroke did not commit exactly once")
	}
	got := s.Scene().Find(l.ID).Img.(*image.RGBA)
	if got.RGBAAt(8, 8).A != 0 {
		t.Errorf("stroke center alpha = %d, want 0", got.RGBAAt(8, 8).A)
	}
	if got.RGBAAt(60, 60).A != 255 {
		t.Errorf("far corner was erased")
	}
	// The committed buffer is a copy; the original layer image is intact.
	if img.RGBAAt(8, 8).A != 255 {
		t.Errorf("erase mutated the original pixel buffer")
	}
}

func TestGenerateObjectRequiresSelection(t *testing.T) {
	s := NewState(config.Default(), failingGenerator(errors.New("unused")))
	if _, err := s.GenerateObject(context.Background(), "a pond"); !errors.Is(err, ErrNoSelection) {
		t.Errorf("error = %v, want ErrNoSelection", err)
	}
}

func TestGenerateObjectCommitsIsolatedLayer(t *testing.T) {
	var sawPrompt string
	generator := gen.Func(func(_ context.Context, prompt string, contextImg image.Image) (image.Image, error) {
		sawPrompt = prompt
		// Echo the context and paint an 8x8 patch in the corner; only
		// the patch should survive isolation.
		out := image.NewRGBA(contextImg.Bounds())
		for y := out.Bounds().Min.Y; y < out.Bounds().Max.Y; y++ {
			for x := out.Bounds().Min.X; x < out.Bounds().Max.X; x++ {
				out.Set(x, y, contextImg.At(x, y))
			}
		}
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				out.SetRGBA(x, y, color.RGBA{R: 220, G: 40, B: 40, A: 255})
			}
		}
		return out, nil
	})

	s := NewState(config.Default(), generator)
	before := s.HistoryLen()

	s.SetTool(tool.Rectangle)
	s.PointerDown(geometry.Point2D{X: 10, Y: 10})
	s.PointerUp(geometry.Point2D{X: 74, Y: 74})

	l, err := s.GenerateObject(context.Background(), "a red banner")
	if err != nil {
		t.Fatalf("GenerateObject: %v", err)
	}
	if sawPrompt != "a red banner" {
		t.Errorf("dispatched prompt = %q", sawPrompt)
	}
	if l.Kind != scene.KindObject {
		t.Errorf("layer kind = %v, want object", l.Kind)
	}
	if l.Rect != geometry.NewRect(10, 10, 64, 64) {
		t.Errorf("layer rect = %+v", l.Rect)
	}
	if s.HistoryLen() != before+1 {
		t.Errorf("history grew by %d, want 1", s.HistoryLen()-before)
	}

	img := l.Img.(*image.RGBA)
	if img.RGBAAt(4, 4).A != 255 {
		t.Errorf("painted patch was not kept opaque")
	}
	if img.RGBAAt(32, 32).A != 0 {
		t.Errorf("unchanged background was not made transparent")
	}

	if _, active := s.Selection(); active {
		t.Errorf("selection survived a successful generation")
	}
	records := s.GenerationLog().Records()
	if len(records) != 1 {
		t.Fatalf("logged %d records, want 1", len(records))
	}
	if records[0].Stats == nil {
		t.Errorf("successful generation record has no extraction stats")
	}
}

func TestGenerationFailureLeavesSceneUntouched(t *testing.T) {
	s := NewState(config.Default(), failingGenerator(errors.New("backend down")))
	s.AddLayer(scene.NewLayer("grass", scene.KindBase,
		solidImage(4, 4, color.RGBA{G: 160, A: 255}), geometry.NewRect(0, 0, 1024, 1024), 0))
	lenBefore, histBefore := s.Scene().Len(), s.HistoryLen()

	s.SetTool(tool.Rectangle)
	s.PointerDown(geometry.Point2D{X: 0, Y: 0})
	s.PointerUp(geometry.Point2D{X: 64, Y: 64})

	if _, err := s.GenerateObject(context.Background(), "a tree"); err == nil {
		t.Fatal("expected generation failure")
	}
	if s.Scene().Len() != lenBefore || s.HistoryLen() != histBefore {
		t.Errorf("failed generation mutated scene or history")
	}
	if _, active := s.Selection(); !active {
		t.Errorf("selection should survive a failed generation")
	}

	// The dispatch itself is logged even though nothing was committed.
	records := s.GenerationLog().Records()
	if len(records) != 1 {
		t.Fatalf("logged %d records for a failed dispatch, want 1", len(records))
	}
	if records[0].Prompt != "a tree" || records[0].Stats != nil {
		t.Errorf("failed dispatch record = %+v", records[0])
	}
}

func TestGenerateBrushObjectRequiresMask(t *testing.T) {
	s := NewState(config.Default(), failingGenerator(errors.New("unused")))
	s.SetViewportSize(128, 128)
	if _, err := s.GenerateBrushObject(context.Background(), "fog"); !errors.Is(err, ErrEmptyMask) {
		t.Errorf("error = %v, want ErrEmptyMask", err)
	}
}

func TestGenerateBrushObjectClearsMask(t *testing.T) {
	generator := gen.Func(func(_ context.Context, _ string, contextImg image.Image) (image.Image, error) {
		out := image.NewRGBA(contextImg.Bounds())
		for y := 40; y < 56; y++ {
			for x := 40; x < 56; x++ {
				out.SetRGBA(x, y, color.RGBA{R: 240, G: 230, B: 90, A: 255})
			}
		}
		return out, nil
	})

	s := NewState(config.Default(), generator)
	s.SetViewportSize(128, 128)
	s.SetTool(tool.Brush)
	s.PointerDown(geometry.Point2D{X: 48, Y: 48})
	s.PointerUp(geometry.Point2D{X: 48, Y: 48})
	if s.BrushMask() == nil {
		t.Fatal("brush stroke produced no mask")
	}

	l, err := s.GenerateBrushObject(context.Background(), "a lantern glow")
	if err != nil {
		t.Fatalf("GenerateBrushObject: %v", err)
	}
	if l.Rect != geometry.NewRect(0, 0, 128, 128) {
		t.Errorf("layer rect = %+v, want the viewport", l.Rect)
	}
	if s.BrushMask() != nil {
		t.Errorf("mask survived a successful generation")
	}
}

func TestGenerateNeighborTileEndToEnd(t *testing.T) {
	cfg := config.Default()
	wantCanvas := cfg.TileSize + cfg.StripWidth // one neighbor on one axis

	var sawBounds image.Rectangle
	var sawPrompt string
	generator := gen.Func(func(_ context.Context, prompt string, contextImg image.Image) (image.Image, error) {
		sawBounds = contextImg.Bounds()
		sawPrompt = prompt
		return contextImg, nil
	})

	s := NewState(cfg, generator)
	s.AddLayer(scene.NewLayer("meadow", scene.KindBase,
		solidImage(32, 32, color.RGBA{G: 150, A: 255}),
		geometry.NewRect(0, 0, 1024, 1024), 0))
	before := s.HistoryLen()

	// Generate the tile to the east; the existing tile is its west
	// neighbor, so the canvas gains one strip on the west side.
	tileRect := geometry.NewRect(1024, 0, 1024, 1024)
	l, err := s.GenerateNeighborTile(context.Background(), "rolling meadow", tileRect)
	if err != nil {
		t.Fatalf("GenerateNeighborTile: %v", err)
	}

	if sawBounds.Dx() != wantCanvas || sawBounds.Dy() != wantCanvas {
		t.Errorf("dispatched canvas = %dx%d, want %dx%d",
			sawBounds.Dx(), sawBounds.Dy(), wantCanvas, wantCanvas)
	}
	if sawPrompt == "rolling meadow" {
		t.Errorf("stitch instruction was not appended to the prompt")
	}

	if l.Kind != scene.KindBase {
		t.Errorf("layer kind = %v, want base", l.Kind)
	}
	if l.Rect != tileRect {
		t.Errorf("layer rect = %+v, want %+v", l.Rect, tileRect)
	}
	if w, h := l.NativeSize(); w != cfg.TileSize || h != cfg.TileSize {
		t.Errorf("tile native size = %dx%d, want %dx%d", w, h, cfg.TileSize, cfg.TileSize)
	}
	if s.HistoryLen() != before+1 {
		t.Errorf("history grew by %d, want 1", s.HistoryLen()-before)
	}
	if s.HistoryCursor() != s.HistoryLen()-1 {
		t.Errorf("cursor = %d, want newest snapshot %d", s.HistoryCursor(), s.HistoryLen()-1)
	}
	if s.Scene().Len() != 2 {
		t.Errorf("scene len = %d, want 2", s.Scene().Len())
	}
}

func TestGenerateNeighborTileUnconstrainedFallsBack(t *testing.T) {
	cfg := config.Default()
	var sawContext image.Image = image.NewRGBA(image.Rect(0, 0, 1, 1))
	generator := gen.Func(func(_ context.Context, _ string, contextImg image.Image) (image.Image, error) {
		sawContext = contextImg
		return solidImage(512, 512, color.RGBA{B: 120, A: 255}), nil
	})

	s := NewState(cfg, generator)
	l, err := s.GenerateNeighborTile(context.Background(), "open water",
		geometry.NewRect(0, 0, 1024, 1024))
	if err != nil {
		t.Fatalf("GenerateNeighborTile: %v", err)
	}
	if sawContext != nil {
		t.Errorf("unconstrained request should dispatch without a context image")
	}
	if w, h := l.NativeSize(); w != cfg.TileSize || h != cfg.TileSize {
		t.Errorf("fallback tile was not resampled to %d, got %dx%d", cfg.TileSize, w, h)
	}
}

func TestLayerNameTruncatesOnRuneBoundary(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"short passes through", "a mossy well", "a mossy well"},
		{"first sentence only", "a pond. deep and cold", "a pond"},
		{"empty falls back", "   ", "generated"},
		{
			"multibyte prompt stays valid utf-8",
			strings.Repeat("日", 50),
			strings.Repeat("日", 40),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := layerName(tt.prompt)
			if got != tt.want {
				t.Errorf("layerName(%q) = %q, want %q", tt.prompt, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("layerName produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestLoadImageLayerRejectsUnsupportedFormat(t *testing.T) {
	s := NewState(config.Default(), nil)
	if _, err := s.LoadImageLayer("map.tiff"); err == nil {
		t.Error("unsupported extension should be rejected before decode")
	}
	if s.Scene().Len() != 0 {
		t.Error("rejected import mutated the scene")
	}
}

func TestSetToolClearsTransients(t *testing.T) {
	s := NewState(config.Default(), nil)
	s.SetViewportSize(64, 64)

	s.SetTool(tool.Brush)
	s.PointerDown(geometry.Point2D{X: 32, Y: 32})
	s.PointerUp(geometry.Point2D{X: 32, Y: 32})
	if s.BrushMask() == nil {
		t.Fatal("no brush mask after stroke")
	}

	s.SetTool(tool.Rectangle)
	if s.BrushMask() != nil {
		t.Errorf("brush mask survived a tool switch")
	}
}

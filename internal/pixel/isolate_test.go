package pixel

import (
	"image"
	"image/color"
	"testing"

	"mapforge/pkg/colorutil"
)

func fill(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestChromaKeyRemove(t *testing.T) {
	key := colorutil.Marker
	tests := []struct {
		name      string
		pixel     color.RGBA
		wantAlpha uint8
	}{
		{"exact key", color.RGBA{255, 0, 255, 255}, 0},
		{"antialiased fringe", color.RGBA{230, 20, 240, 255}, 0}, // distance 60 < 100
		{"subject pixel", color.RGBA{40, 120, 40, 255}, 255},
		{"near miss above threshold", color.RGBA{220, 40, 220, 255}, 255}, // distance 110
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := fill(2, 2, tt.pixel)
			out := ChromaKeyRemove(img, key, DefaultChromaThreshold)
			if got := out.RGBAAt(1, 1).A; got != tt.wantAlpha {
				t.Errorf("alpha = %d, want %d", got, tt.wantAlpha)
			}
		})
	}
}

func TestChromaKeyRemoveIdempotent(t *testing.T) {
	img := fill(4, 4, color.RGBA{40, 120, 40, 255})
	img.SetRGBA(0, 0, colorutil.Marker)
	img.SetRGBA(3, 3, color.RGBA{250, 10, 250, 255})

	once := ChromaKeyRemove(img, colorutil.Marker, DefaultChromaThreshold)
	twice := ChromaKeyRemove(once, colorutil.Marker, DefaultChromaThreshold)

	if len(once.Pix) != len(twice.Pix) {
		t.Fatal("buffer sizes differ")
	}
	for i := range once.Pix {
		if once.Pix[i] != twice.Pix[i] {
			t.Fatalf("pix[%d] differs after second application: %d vs %d", i, once.Pix[i], twice.Pix[i])
		}
	}
}

func TestDifferenceExtractIdenticalInputs(t *testing.T) {
	img := fill(8, 8, color.RGBA{90, 140, 60, 255})
	out := DifferenceExtract(img, img, DefaultDifferenceThreshold)
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if a := out.RGBAAt(x, y).A; a != 0 {
				t.Fatalf("pixel (%d,%d) alpha = %d, want fully transparent", x, y, a)
			}
		}
	}
}

func TestDifferenceExtractKeepsChangedPixels(t *testing.T) {
	orig := fill(4, 4, color.RGBA{90, 140, 60, 255})
	gen := fill(4, 4, color.RGBA{90, 140, 60, 255})
	added := color.RGBA{200, 30, 30, 200} // non-opaque on purpose
	gen.SetRGBA(2, 2, added)

	out := DifferenceExtract(orig, gen, DefaultDifferenceThreshold)

	got := out.RGBAAt(2, 2)
	if got.A != 255 {
		t.Errorf("changed pixel alpha = %d, want forced 255", got.A)
	}
	if got.R != added.R || got.G != added.G || got.B != added.B {
		t.Errorf("changed pixel color = %v, want generated %v", got, added)
	}
	if a := out.RGBAAt(0, 0).A; a != 0 {
		t.Errorf("unchanged pixel alpha = %d, want 0", a)
	}
}

func TestDifferenceExtractResamplesOriginal(t *testing.T) {
	// Original at half resolution; generated dimensions are the reference.
	orig := fill(4, 4, color.RGBA{90, 140, 60, 255})
	gen := fill(8, 8, color.RGBA{90, 140, 60, 255})

	out := DifferenceExtract(orig, gen, DefaultDifferenceThreshold)
	if b := out.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Fatalf("output bounds = %v, want 8x8", b)
	}
	if a := out.RGBAAt(4, 4).A; a != 0 {
		t.Errorf("uniform resampled pixel alpha = %d, want 0", a)
	}
}

func TestResample(t *testing.T) {
	img := fill(4, 4, color.RGBA{10, 20, 30, 255})
	out := Resample(img, 16, 16)
	if b := out.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Fatalf("bounds = %v, want 16x16", b)
	}
	if got := out.RGBAAt(8, 8); got != (color.RGBA{10, 20, 30, 255}) {
		t.Errorf("uniform image resample changed color: %v", got)
	}
	// Same size must be a plain copy.
	same := Resample(img, 4, 4)
	if got := same.RGBAAt(2, 2); got != (color.RGBA{10, 20, 30, 255}) {
		t.Errorf("same-size resample changed color: %v", got)
	}
}

func TestDistanceStats(t *testing.T) {
	orig := fill(4, 4, color.RGBA{0, 0, 0, 255})
	gen := fill(4, 4, color.RGBA{0, 0, 0, 255})
	// Change a quarter of the pixels by a distance of 300.
	for i := 0; i < 4; i++ {
		gen.SetRGBA(i, 0, color.RGBA{100, 100, 100, 255})
	}

	s := DistanceStats(orig, gen, DefaultDifferenceThreshold)
	if s.KeptFraction != 0.25 {
		t.Errorf("KeptFraction = %v, want 0.25", s.KeptFraction)
	}
	if s.MeanDistance != 75 {
		t.Errorf("MeanDistance = %v, want 75", s.MeanDistance)
	}
	if s.MedianDistance != 0 {
		t.Errorf("MedianDistance = %v, want 0", s.MedianDistance)
	}
}

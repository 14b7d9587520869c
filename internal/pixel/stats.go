package pixel

import (
	"image"
	"sort"

	"gonum.org/v1/gonum/stat"

	"mapforge/pkg/colorutil"
)

// ExtractStats summarizes how a difference extraction separated a
// generated buffer from its original. Attached to debug records;
// informational only.
type ExtractStats struct {
	KeptFraction   float64 `json:"kept_fraction"`
	MeanDistance   float64 `json:"mean_distance"`
	MedianDistance float64 `json:"median_distance"`
}

// DistanceStats computes per-pixel Manhattan distance statistics between
// original and generated, with generated's dimensions as the reference.
func DistanceStats(original, generated image.Image, threshold int) ExtractStats {
	gen := ToRGBA(generated)
	b := gen.Bounds()
	ref := Resample(original, b.Dx(), b.Dy())

	n := b.Dx() * b.Dy()
	if n == 0 {
		return ExtractStats{}
	}

	distances := make([]float64, 0, n)
	kept := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := gen.PixOffset(x, y)
			j := ref.PixOffset(x-b.Min.X, y-b.Min.Y)
			d := colorutil.ManhattanRGB(
				gen.Pix[i], gen.Pix[i+1], gen.Pix[i+2],
				ref.Pix[j], ref.Pix[j+1], ref.Pix[j+2],
			)
			if d >= threshold {
				kept++
			}
			distances = append(distances, float64(d))
		}
	}

	sort.Float64s(distances)
	return ExtractStats{
		KeptFraction:   float64(kept) / float64(n),
		MeanDistance:   stat.Mean(distances, nil),
		MedianDistance: stat.Quantile(0.5, stat.Empirical, distances, nil),
	}
}

// Package pixel provides the pure region-based pixel transforms used to
// reconcile generated images back into the layer model.
//
// Both isolators work pixel-by-pixel on RGBA buffers and use Manhattan
// distance over R, G and B (range 0-765). The thresholds are tuned
// constants surfaced through configuration, never derived per image.
package pixel

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"mapforge/pkg/colorutil"
)

const (
	// DefaultChromaThreshold tolerates anti-aliased fringes against
	// the key color. Genuinely saturated magenta content inside a
	// subject is eaten too; accepted trade-off.
	DefaultChromaThreshold = 100

	// DefaultDifferenceThreshold separates model-added content from
	// background the model left pixel-identical.
	DefaultDifferenceThreshold = 35
)

// DefaultKey is the reserved chroma key color.
var DefaultKey = colorutil.Marker

// ChromaKeyRemove returns a copy of img with every pixel within
// threshold of key made fully transparent and every other pixel forced
// opaque. Applying it twice yields the same result as applying it once.
func ChromaKeyRemove(img image.Image, key color.RGBA, threshold int) *image.RGBA {
	out := ToRGBA(img)
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := out.PixOffset(x, y)
			d := colorutil.ManhattanRGB(out.Pix[i], out.Pix[i+1], out.Pix[i+2], key.R, key.G, key.B)
			if d < threshold {
				out.Pix[i+3] = 0
			} else {
				out.Pix[i+3] = 255
			}
		}
	}
	return out
}

// DifferenceExtract isolates what the generator added: pixels of
// generated that stayed within threshold of original become transparent;
// changed pixels keep the generated color with alpha forced to 255.
//
// The generated buffer's dimensions are the reference; original is
// resampled to match before comparison. Correctness rests on the model
// leaving untouched background pixel-identical.
func DifferenceExtract(original, generated image.Image, threshold int) *image.RGBA {
	out := ToRGBA(generated)
	b := out.Bounds()
	ref := Resample(original, b.Dx(), b.Dy())

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := out.PixOffset(x, y)
			j := ref.PixOffset(x-b.Min.X, y-b.Min.Y)
			d := colorutil.ManhattanRGB(
				out.Pix[i], out.Pix[i+1], out.Pix[i+2],
				ref.Pix[j], ref.Pix[j+1], ref.Pix[j+2],
			)
			if d < threshold {
				out.Pix[i+3] = 0
			} else {
				out.Pix[i+3] = 255
			}
		}
	}
	return out
}

// Resample scales img to w x h. Same-size inputs are copied, not
// interpolated.
func Resample(img image.Image, w, h int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return ToRGBA(img)
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}

// ToRGBA returns img as a freshly allocated *image.RGBA.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

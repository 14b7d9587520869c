// Package colorutil provides shared color utilities for the map editor.
package colorutil

import (
	"image/color"
)

// Reserved colors used by the generation pipeline.
var (
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}

	// Marker is the chroma key painted into regions the generator
	// should fill. Pure magenta rarely occurs in natural map content.
	Marker = color.RGBA{R: 255, G: 0, B: 255, A: 255}

	// BrushHint is the semi-transparent marker used by the brush tool.
	BrushHint = WithAlpha(Marker, 128)

	// Neutral is the backdrop for stitch canvases, a mid gray that
	// biases the generator toward neither light nor dark content.
	Neutral = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// ManhattanRGB returns the sum of absolute per-channel differences over
// R, G and B for two 8-bit colors. Range 0-765; alpha is ignored.
func ManhattanRGB(r1, g1, b1, r2, g2, b2 uint8) int {
	return absDiff(r1, r2) + absDiff(g1, g2) + absDiff(b1, b2)
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// WithAlpha returns c with its alpha channel replaced.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}

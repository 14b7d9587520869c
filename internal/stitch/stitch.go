// Package stitch implements the tile-stitching protocol: assembling a
// square generation canvas out of edge strips from existing neighbor
// tiles plus a marker-filled void for the new tile, and mapping the
// generator's output back onto the world grid.
//
// The inverse crop in CropBack is the correctness contract of the whole
// protocol: any mismatch there misaligns the new tile against the
// neighbors it was stitched to.
package stitch

import (
	"fmt"
	"image"
	"image/draw"
	"strings"

	"mapforge/internal/pixel"
	"mapforge/internal/render"
	"mapforge/internal/scene"
	"mapforge/pkg/colorutil"
	"mapforge/pkg/geometry"
)

// Direction is a cardinal neighbor direction.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Directions lists all four cardinal directions in a fixed order.
var Directions = [4]Direction{North, East, South, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// offset returns the world translation from a tile to its neighbor in
// this direction, for a given tile size.
func (d Direction) offset(tileSize float64) (dx, dy float64) {
	switch d {
	case North:
		return 0, -tileSize
	case East:
		return tileSize, 0
	case South:
		return 0, tileSize
	default:
		return -tileSize, 0
	}
}

// NeighborRect returns the world rectangle of the neighbor tile in the
// given direction.
func NeighborRect(tileRect geometry.Rect, d Direction) geometry.Rect {
	dx, dy := d.offset(tileRect.Width)
	return tileRect.Translate(dx, dy)
}

// Neighbors tests each cardinal direction for an existing base tile
// whose position proximity-matches the expected neighbor position.
// epsilon absorbs floating accumulation drift in tile placement.
func Neighbors(s scene.Scene, tileRect geometry.Rect, epsilon float64) map[Direction]*scene.Layer {
	found := make(map[Direction]*scene.Layer)
	for _, d := range Directions {
		expected := NeighborRect(tileRect, d).TopLeft()
		for _, l := range s.BaseLayers() {
			if l.Rect.TopLeft().Distance(expected) < epsilon {
				found[d] = l
				break
			}
		}
	}
	return found
}

// Plan fixes the geometry of one stitched generation: canvas size, the
// placement of the new tile's void within it, and which edges carry
// neighbor strips.
type Plan struct {
	TileRect   geometry.Rect
	TileSize   int
	StripWidth int
	CanvasSize int
	// OffsetX, OffsetY locate the new tile's region inside the canvas.
	OffsetX int
	OffsetY int
	Present map[Direction]bool
}

// NewPlan computes the layout for a tile with the given set of present
// neighbors. The canvas is square (side = max content dimension) so the
// generator sees no anisotropic distortion; present-neighbor strips sit
// flush against their canvas edges, absent sides center the slack.
func NewPlan(tileRect geometry.Rect, present map[Direction]bool, tileSize, stripWidth int) Plan {
	contentW := tileSize
	if present[West] {
		contentW += stripWidth
	}
	if present[East] {
		contentW += stripWidth
	}
	contentH := tileSize
	if present[North] {
		contentH += stripWidth
	}
	if present[South] {
		contentH += stripWidth
	}

	canvas := contentW
	if contentH > canvas {
		canvas = contentH
	}

	return Plan{
		TileRect:   tileRect,
		TileSize:   tileSize,
		StripWidth: stripWidth,
		CanvasSize: canvas,
		OffsetX:    axisOffset(present[West], present[East], canvas, tileSize, stripWidth),
		OffsetY:    axisOffset(present[North], present[South], canvas, tileSize, stripWidth),
		Present:    present,
	}
}

// axisOffset places the tile along one axis: flush after the
// negative-side strip when present, flush before the positive-side
// strip otherwise, centered when the axis is unconstrained.
func axisOffset(negPresent, posPresent bool, canvas, tile, strip int) int {
	switch {
	case negPresent:
		return strip
	case posPresent:
		return canvas - tile - strip
	default:
		return (canvas - tile) / 2
	}
}

// Unconstrained reports whether no neighbor contributes context, in
// which case callers may skip stitching and issue a plain base-texture
// request.
func (p Plan) Unconstrained() bool {
	for _, d := range Directions {
		if p.Present[d] {
			return false
		}
	}
	return true
}

// stripWorldRect returns the world region of the neighbor strip feeding
// the given canvas edge: the slice of the neighbor adjacent to the new
// tile.
func (p Plan) stripWorldRect(d Direction) geometry.Rect {
	r := p.TileRect
	s := float64(p.StripWidth)
	switch d {
	case North:
		return geometry.NewRect(r.X, r.Y-s, r.Width, s)
	case East:
		return geometry.NewRect(r.X+r.Width, r.Y, s, r.Height)
	case South:
		return geometry.NewRect(r.X, r.Y+r.Height, r.Width, s)
	default:
		return geometry.NewRect(r.X-s, r.Y, s, r.Height)
	}
}

// stripCanvasPoint returns the canvas pixel position of the strip for
// the given direction.
func (p Plan) stripCanvasPoint(d Direction) image.Point {
	switch d {
	case North:
		return image.Pt(p.OffsetX, p.OffsetY-p.StripWidth)
	case East:
		return image.Pt(p.OffsetX+p.TileSize, p.OffsetY)
	case South:
		return image.Pt(p.OffsetX, p.OffsetY+p.TileSize)
	default:
		return image.Pt(p.OffsetX-p.StripWidth, p.OffsetY)
	}
}

// Assemble paints the generation canvas: neutral fill, neighbor strips,
// the marker-filled void, then the strips once more on top so the void
// fill can never bleed into fixed context.
func Assemble(s scene.Scene, p Plan) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, p.CanvasSize, p.CanvasSize))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(colorutil.Neutral), image.Point{}, draw.Src)

	strips := make(map[Direction]*image.RGBA)
	for _, d := range Directions {
		if !p.Present[d] {
			continue
		}
		strips[d] = render.Region(s, p.stripWorldRect(d), render.BackgroundOpaque)
	}

	blitStrips := func() {
		for d, strip := range strips {
			at := p.stripCanvasPoint(d)
			dr := image.Rectangle{Min: at, Max: at.Add(strip.Bounds().Size())}
			draw.Draw(canvas, dr, strip, image.Point{}, draw.Src)
		}
	}

	blitStrips()
	void := image.Rect(p.OffsetX, p.OffsetY, p.OffsetX+p.TileSize, p.OffsetY+p.TileSize)
	draw.Draw(canvas, void, image.NewUniform(colorutil.Marker), image.Point{}, draw.Src)
	blitStrips()

	return canvas
}

// Instruction builds the textual stitching contract sent alongside the
// canvas: which edges are fixed context and where the void sits.
func Instruction(p Plan) string {
	var fixed []string
	for _, d := range Directions {
		if p.Present[d] {
			fixed = append(fixed, d.String())
		}
	}
	var b strings.Builder
	if len(fixed) == 0 {
		b.WriteString("Fill the entire canvas with new tile content.")
		return b.String()
	}
	fmt.Fprintf(&b, "The %s edge strips are fixed context from adjacent tiles; reproduce them exactly. ",
		strings.Join(fixed, ", "))
	fmt.Fprintf(&b, "Fill only the solid magenta region with new content that continues seamlessly from every fixed edge.")
	return b.String()
}

// CropBack recovers the new tile at native resolution from the
// generator's output. The output may be any size; the plan's offsets
// scale by outputSize/canvasSize before cropping, and the crop is
// resampled back to the native tile size.
func CropBack(output image.Image, p Plan) *image.RGBA {
	ob := output.Bounds()
	scale := float64(ob.Dx()) / float64(p.CanvasSize)

	x := int(float64(p.OffsetX)*scale + 0.5)
	y := int(float64(p.OffsetY)*scale + 0.5)
	side := int(float64(p.TileSize)*scale + 0.5)

	crop := image.Rect(x, y, x+side, y+side).Add(ob.Min).Intersect(ob)
	tile := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(tile, tile.Bounds(), output, crop.Min, draw.Src)

	return pixel.Resample(tile, p.TileSize, p.TileSize)
}

// Command stitchtest assembles a stitch canvas from a project file and
// writes it to a PNG, for inspecting what the generator would be sent.
//
// Usage: stitchtest -p <project.mapforge> -x <tileX> -y <tileY> [-o canvas.png]
package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"

	"mapforge/internal/config"
	"mapforge/internal/project"
	"mapforge/internal/stitch"
	"mapforge/pkg/geometry"
)

func main() {
	projectPath := flag.String("p", "", "Path to project file")
	tileX := flag.Float64("x", 0, "Tile world X")
	tileY := flag.Float64("y", 0, "Tile world Y")
	out := flag.String("o", "canvas.png", "Output PNG path")
	flag.Parse()

	if *projectPath == "" {
		fmt.Println("Usage: stitchtest -p <project.mapforge> -x <tileX> -y <tileY> [-o canvas.png]")
		os.Exit(1)
	}

	cfg := config.Default()
	scene, _, err := project.Load(*projectPath)
	if err != nil {
		fmt.Printf("Failed to load project: %v\n", err)
		os.Exit(1)
	}

	tileRect := geometry.NewRect(*tileX, *tileY, float64(cfg.TileSize), float64(cfg.TileSize))
	neighbors := stitch.Neighbors(scene, tileRect, cfg.NeighborEpsilon)
	present := make(map[stitch.Direction]bool, len(neighbors))
	for d, l := range neighbors {
		present[d] = true
		fmt.Printf("Neighbor %s: %s at (%.0f, %.0f)\n", d, l.Name, l.Rect.X, l.Rect.Y)
	}

	plan := stitch.NewPlan(tileRect, present, cfg.TileSize, cfg.StripWidth)
	fmt.Printf("Canvas %dx%d, tile offset (%d, %d)\n",
		plan.CanvasSize, plan.CanvasSize, plan.OffsetX, plan.OffsetY)
	if plan.Unconstrained() {
		fmt.Println("No neighbors present; generation would be unconstrained")
		return
	}
	fmt.Println(stitch.Instruction(plan))

	canvas := stitch.Assemble(scene, plan)
	f, err := os.Create(*out)
	if err != nil {
		fmt.Printf("Failed to create %s: %v\n", *out, err)
		os.Exit(1)
	}
	defer f.Close()
	if err := png.Encode(f, canvas); err != nil {
		fmt.Printf("Failed to encode: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *out)
}

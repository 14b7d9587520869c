// Command isolatetest runs the object isolation passes on a pair of
// images and reports extraction statistics.
//
// Usage: isolatetest -a <original> -b <generated> [-o isolated.png] [-chroma]
package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"

	"mapforge/internal/pixel"
	"mapforge/internal/render"
)

func main() {
	origPath := flag.String("a", "", "Path to original (context) image")
	genPath := flag.String("b", "", "Path to generated image")
	out := flag.String("o", "isolated.png", "Output PNG path")
	chroma := flag.Bool("chroma", false, "Also run the chroma key pass")
	flag.Parse()

	if *origPath == "" || *genPath == "" {
		fmt.Println("Usage: isolatetest -a <original> -b <generated> [-o isolated.png] [-chroma]")
		os.Exit(1)
	}

	original, err := render.Load(*origPath)
	if err != nil {
		fmt.Printf("Failed to load %s: %v\n", *origPath, err)
		os.Exit(1)
	}
	generated, err := render.Load(*genPath)
	if err != nil {
		fmt.Printf("Failed to load %s: %v\n", *genPath, err)
		os.Exit(1)
	}

	isolated := pixel.DifferenceExtract(original, generated, pixel.DefaultDifferenceThreshold)
	if *chroma {
		isolated = pixel.ChromaKeyRemove(isolated, pixel.DefaultKey, pixel.DefaultChromaThreshold)
	}

	stats := pixel.DistanceStats(original, generated, pixel.DefaultDifferenceThreshold)
	fmt.Printf("Kept %.1f%% of pixels\n", stats.KeptFraction*100)
	fmt.Printf("Mean channel distance:   %.1f\n", stats.MeanDistance)
	fmt.Printf("Median channel distance: %.1f\n", stats.MedianDistance)

	f, err := os.Create(*out)
	if err != nil {
		fmt.Printf("Failed to create %s: %v\n", *out, err)
		os.Exit(1)
	}
	defer f.Close()
	if err := png.Encode(f, isolated); err != nil {
		fmt.Printf("Failed to encode: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *out)
}

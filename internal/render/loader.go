package render

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/webp"
)

// Load decodes an image file.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode decodes an encoded image from a reader.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// LoadAll decodes several image files concurrently and joins on all of
// them before returning. A failed decode yields a nil entry rather than
// failing the batch; the compositor renders nil images as blank.
func LoadAll(paths []string) []image.Image {
	images := make([]image.Image, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			img, err := Load(path)
			if err != nil {
				slog.Warn("render: image load failed, layer degrades to blank",
					"path", path, "error", err)
				return
			}
			images[i] = img
		}(i, path)
	}
	wg.Wait()
	return images
}

// SupportedFormats returns the image formats accepted by Load.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".webp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

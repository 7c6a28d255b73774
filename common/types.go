package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"os"

	// Register the stdlib decoders plus the extended x/image formats so
	// image.Decode can sniff any of them from the input file.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SourceImage describes the raster image the mip chain is built from.
// The image comes either from a file path or from raw encoded bytes;
// Decode forces the result to 8-bit RGBA regardless of the source format.
type SourceImage struct {
	// Path is the file path for on-disk images (empty when Data is set).
	Path string

	// Data contains raw encoded image bytes for in-memory sources.
	Data []byte

	// Width is the image width in pixels (populated after Decode).
	Width int

	// Height is the image height in pixels (populated after Decode).
	Height int
}

// Decode decodes the source image to raw RGBA pixel data, 4 bytes per
// pixel in row-major order. Paletted, grayscale, and RGB sources are all
// converted so the GPU upload can always assume a 4-channel layout.
//
// Returns:
//   - []byte: raw RGBA pixel data (4 bytes per pixel, row-major order)
//   - uint32: image width in pixels
//   - uint32: image height in pixels
//   - error: error if decoding fails
func (s *SourceImage) Decode() ([]byte, uint32, uint32, error) {
	if s == nil {
		return nil, 0, 0, fmt.Errorf("source image is nil")
	}

	var img image.Image
	var err error

	if len(s.Data) > 0 {
		img, _, err = image.Decode(bytes.NewReader(s.Data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode embedded image: %w", err)
		}
	} else if s.Path != "" {
		file, fileErr := os.Open(s.Path)
		if fileErr != nil {
			return nil, 0, 0, fmt.Errorf("failed to open image file %s: %w", s.Path, fileErr)
		}
		defer file.Close()

		img, _, err = image.Decode(file)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to decode image file %s: %w", s.Path, err)
		}
	} else {
		return nil, 0, 0, fmt.Errorf("source image has neither data nor path")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	s.Width = width
	s.Height = height

	return rgba.Pix, uint32(width), uint32(height), nil
}

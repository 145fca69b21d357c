package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	// Register decoders for the scan formats we accept.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxScanDimension bounds standalone scan images before OCR. Larger
// scans are downscaled to keep engine memory use predictable.
const maxScanDimension = 2000

// LoadedImage is a standalone scan normalized for OCR input.
type LoadedImage struct {
	// PNG is the re-encoded image handed to the engine.
	PNG []byte

	// Format is the source codec ("jpeg", "tiff", ...), kept as output
	// metadata.
	Format string
}

// LoadImage reads a scan image from disk, records its original format,
// downscales it if oversized, and re-encodes it as PNG to standardize
// OCR input.
func LoadImage(path string) (*LoadedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img = Thumbnail(img, maxScanDimension)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}

	return &LoadedImage{PNG: buf.Bytes(), Format: format}, nil
}

// Thumbnail scales an image down so neither dimension exceeds max,
// preserving aspect ratio. Images already within bounds are returned
// unchanged.
func Thumbnail(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return img
	}

	scale := float64(max) / float64(w)
	if h > w {
		scale = float64(max) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func TestLoadImage(t *testing.T) {
	t.Run("records source format and re-encodes as PNG", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "scan.png")

		img := image.NewRGBA(image.Rect(0, 0, 10, 10))
		if err := os.WriteFile(path, encodePNG(t, img), 0o644); err != nil {
			t.Fatal(err)
		}

		loaded, err := LoadImage(path)
		if err != nil {
			t.Fatalf("LoadImage failed: %v", err)
		}
		if loaded.Format != "png" {
			t.Errorf("expected png format, got %s", loaded.Format)
		}
		if _, err := png.Decode(bytes.NewReader(loaded.PNG)); err != nil {
			t.Errorf("output is not valid PNG: %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadImage(filepath.Join(t.TempDir(), "nope.png")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("garbage bytes", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "bad.png")
		if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadImage(path); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestThumbnail(t *testing.T) {
	t.Run("small image unchanged", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 100, 50))
		out := Thumbnail(img, 2000)
		if out != img {
			t.Error("expected image within bounds to pass through")
		}
	})

	t.Run("wide image scaled to max width", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 4000, 1000))
		out := Thumbnail(img, 2000)
		b := out.Bounds()
		if b.Dx() != 2000 || b.Dy() != 500 {
			t.Errorf("unexpected dimensions: %dx%d", b.Dx(), b.Dy())
		}
	})

	t.Run("tall image scaled to max height", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 1000, 4000))
		out := Thumbnail(img, 2000)
		b := out.Bounds()
		if b.Dx() != 500 || b.Dy() != 2000 {
			t.Errorf("unexpected dimensions: %dx%d", b.Dx(), b.Dy())
		}
	})
}

func TestOtsuThreshold(t *testing.T) {
	// Half black, half white: the threshold must separate the two modes.
	gray := image.NewGray(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			if x < 5 {
				gray.SetGray(x, y, color.Gray{Y: 20})
			} else {
				gray.SetGray(x, y, color.Gray{Y: 220})
			}
		}
	}

	thresh := OtsuThreshold(gray)
	if thresh < 20 || thresh >= 220 {
		t.Errorf("threshold %d does not separate the modes", thresh)
	}
}

func TestBinarize(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(0, 0, color.Gray{Y: 10})
	gray.SetGray(1, 0, color.Gray{Y: 200})

	out := Binarize(gray, 100)

	if out.GrayAt(0, 0).Y != 0 {
		t.Error("expected dark pixel to map to black")
	}
	if out.GrayAt(1, 0).Y != 255 {
		t.Error("expected light pixel to map to white")
	}
}

func TestMedianFilter_RemovesSpeckle(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 5, 5))
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			gray.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	// Single black speckle in the middle of white.
	gray.SetGray(2, 2, color.Gray{Y: 0})

	out := MedianFilter(gray)

	if out.GrayAt(2, 2).Y != 255 {
		t.Errorf("expected speckle removed, got %d", out.GrayAt(2, 2).Y)
	}
}

func TestPreprocess_RoundTrip(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if y > 10 {
				img.Set(x, y, color.RGBA{R: 10, G: 10, B: 10, A: 255})
			} else {
				img.Set(x, y, color.RGBA{R: 240, G: 240, B: 240, A: 255})
			}
		}
	}

	out, err := Preprocess(encodePNG(t, img))
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("unexpected bounds: %v", decoded.Bounds())
	}
}

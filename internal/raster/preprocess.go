package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sort"
)

// Preprocess prepares a scan for recognition: grayscale, Otsu
// binarization, then a 3x3 median filter to knock out salt-and-pepper
// noise. Stateless; input and output are PNG bytes.
func Preprocess(pngBytes []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image for preprocessing: %w", err)
	}

	gray := Grayscale(img)
	thresh := OtsuThreshold(gray)
	binary := Binarize(gray, thresh)
	denoised := MedianFilter(binary)

	var buf bytes.Buffer
	if err := png.Encode(&buf, denoised); err != nil {
		return nil, fmt.Errorf("failed to encode preprocessed image: %w", err)
	}
	return buf.Bytes(), nil
}

// Grayscale converts any image to 8-bit grayscale.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// OtsuThreshold picks the binarization threshold that minimizes
// intra-class variance over the grayscale histogram.
func OtsuThreshold(gray *image.Gray) uint8 {
	var hist [256]int
	b := gray.Bounds()
	total := b.Dx() * b.Dy()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
		}
	}
	if total == 0 {
		return 128
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i) * float64(n)
	}

	var (
		sumB, wB  float64
		maxVar    float64
		threshold uint8
	)
	for i := 0; i < 256; i++ {
		wB += float64(hist[i])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(hist[i])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > maxVar {
			maxVar = between
			threshold = uint8(i)
		}
	}
	return threshold
}

// Binarize maps pixels above the threshold to white, the rest to black.
func Binarize(gray *image.Gray, threshold uint8) *image.Gray {
	b := gray.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if gray.GrayAt(x, y).Y > threshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

// MedianFilter applies a 3x3 median blur. Border pixels are copied
// through unchanged.
func MedianFilter(gray *image.Gray) *image.Gray {
	b := gray.Bounds()
	out := image.NewGray(b)
	window := make([]int, 0, 9)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if x == b.Min.X || x == b.Max.X-1 || y == b.Min.Y || y == b.Max.Y-1 {
				out.SetGray(x, y, gray.GrayAt(x, y))
				continue
			}
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window = append(window, int(gray.GrayAt(x+dx, y+dy).Y))
				}
			}
			sort.Ints(window)
			out.SetGray(x, y, color.Gray{Y: uint8(window[4])})
		}
	}
	return out
}

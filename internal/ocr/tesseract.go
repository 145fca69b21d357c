package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

const TesseractName = "tesseract"

// TesseractConfig configures the local tesseract engine.
type TesseractConfig struct {
	// Languages passed to tesseract (default ["eng"]).
	Languages []string

	// TessdataPrefix overrides the tessdata directory when set.
	TessdataPrefix string
}

// TesseractEngine runs OCR through libtesseract via gosseract. It is a
// structured engine: recognition returns per-line detections with
// bounding boxes and confidences.
//
// A single gosseract client holds the loaded model. libtesseract's
// recognition state is not safe for concurrent invocation, so the
// engine reports itself non-reentrant and relies on the gate's lock.
type TesseractEngine struct {
	client *gosseract.Client
}

// NewTesseractEngine initializes a tesseract client with the given
// configuration. Close must be called to release the model.
func NewTesseractEngine(cfg TesseractConfig) (*TesseractEngine, error) {
	client := gosseract.NewClient()

	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set tesseract languages: %w", err)
	}
	if cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}

	return &TesseractEngine{client: client}, nil
}

// Name returns "tesseract".
func (e *TesseractEngine) Name() string { return TesseractName }

// Structured returns true: results carry per-region detections.
func (e *TesseractEngine) Structured() bool { return true }

// Reentrant returns false: the shared client must be serialized.
func (e *TesseractEngine) Reentrant() bool { return false }

// Close releases the underlying tesseract client.
func (e *TesseractEngine) Close() error {
	return e.client.Close()
}

// Recognize extracts line-level detections from an encoded image.
func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) Recognition {
	if err := ctx.Err(); err != nil {
		return Recognition{Outcome: OutcomeFailed, Err: err}
	}

	if err := e.client.SetImageFromBytes(image); err != nil {
		return Recognition{
			Outcome: ClassifyError(err),
			Err:     fmt.Errorf("failed to set image: %w", err),
		}
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return Recognition{
			Outcome: ClassifyError(err),
			Err:     fmt.Errorf("tesseract recognition failed: %w", err),
		}
	}

	detections := make([]Detection, 0, len(boxes))
	for _, b := range boxes {
		// Tesseract reports confidence 0-100.
		conf := b.Confidence / 100
		detections = append(detections, Detection{
			Box: [4]Point{
				{X: float64(b.Box.Min.X), Y: float64(b.Box.Min.Y)},
				{X: float64(b.Box.Max.X), Y: float64(b.Box.Min.Y)},
				{X: float64(b.Box.Max.X), Y: float64(b.Box.Max.Y)},
				{X: float64(b.Box.Min.X), Y: float64(b.Box.Max.Y)},
			},
			Text:       b.Word,
			Confidence: &conf,
		})
	}

	return Recognition{Outcome: OutcomeOK, Detections: detections}
}

// Verify interface
var _ Engine = (*TesseractEngine)(nil)

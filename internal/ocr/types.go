// Package ocr defines the engine contract for image-to-text recognition
// and the gate that protects shared, non-reentrant engine instances.
package ocr

import "context"

// Point is a pixel coordinate in page space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Detection is one recognized text region. Box corners are ordered
// top-left, top-right, bottom-right, bottom-left.
type Detection struct {
	Box        [4]Point `json:"box"`
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Top returns the top y-coordinate of the detection's bounding box.
func (d Detection) Top() float64 {
	return d.Box[0].Y
}

// Bottom returns the bottom y-coordinate of the detection's bounding box.
func (d Detection) Bottom() float64 {
	return d.Box[2].Y
}

// Outcome classifies a recognition attempt so callers can branch on a
// typed result instead of parsing error text.
type Outcome int

const (
	// OutcomeOK means recognition produced a usable result.
	OutcomeOK Outcome = iota

	// OutcomeResourceExhausted means the engine ran out of accelerator
	// memory. The page is recoverable: reduce load and try again.
	OutcomeResourceExhausted

	// OutcomeFailed means recognition failed for a non-memory reason.
	// The page should be skipped and retried on a future run.
	OutcomeFailed
)

// String returns the outcome name for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeResourceExhausted:
		return "resource_exhausted"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Recognition is the result of one engine call.
//
// Structured engines populate Detections and leave Text empty; the
// caller reconstructs layout from the detections. Plain-text engines
// populate Text directly and Confidence stays nil.
type Recognition struct {
	Outcome    Outcome
	Text       string
	Detections []Detection
	Confidence *float64

	// Err carries the diagnostic for non-OK outcomes. Informational
	// only - the gate never propagates it as a call failure.
	Err error
}

// Engine is a single OCR backend.
type Engine interface {
	// Name returns the engine identifier (e.g. "tesseract", "openai").
	Name() string

	// Structured reports whether Recognize returns per-region detections
	// (true) or a single plain-text string (false).
	Structured() bool

	// Reentrant reports whether concurrent Recognize calls are safe.
	// Non-reentrant engines are serialized by the gate.
	Reentrant() bool

	// Recognize extracts text from an encoded raster image.
	Recognize(ctx context.Context, image []byte) Recognition
}

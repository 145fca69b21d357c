// Package layout reconstructs paragraph-structured markdown from
// unordered OCR detections.
package layout

import (
	"sort"
	"strings"

	"github.com/jackzampolin/scanmd/internal/ocr"
)

// DefaultVerticalThreshold is the pixel gap between the bottom of one
// detection and the top of the next that starts a new paragraph.
const DefaultVerticalThreshold = 10.0

// ToMarkdown converts OCR detections into a markdown string plus the
// arithmetic mean of the detections' confidence values.
//
// Detections are sorted by the top y-coordinate of their bounding box
// to approximate reading order, then grouped into paragraphs wherever
// the vertical gap exceeds threshold. Paragraph texts are joined by
// single spaces, paragraphs by blank lines. Confidence is nil when
// there are no detections.
//
// This is a heuristic, not a layout engine: multi-column pages and
// vertically overlapping regions will not group correctly.
func ToMarkdown(detections []ocr.Detection, threshold float64) (string, *float64) {
	if len(detections) == 0 {
		return "", nil
	}

	sorted := make([]ocr.Detection, len(detections))
	copy(sorted, detections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Top() < sorted[j].Top()
	})

	var (
		paragraphs []string
		current    []string
		lastBottom float64
		haveBottom bool
		confSum    float64
		confCount  int
	)

	for _, det := range sorted {
		if det.Confidence != nil {
			confSum += *det.Confidence
			confCount++
		}
		if haveBottom && det.Top()-lastBottom > threshold {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = current[:0]
		}
		current = append(current, det.Text)
		lastBottom = det.Bottom()
		haveBottom = true
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}

	markdown := strings.Join(paragraphs, "\n\n")

	var avg *float64
	if confCount > 0 {
		v := confSum / float64(confCount)
		avg = &v
	}
	return markdown, avg
}

// Package assemble wraps reconstructed OCR text and its page context
// into the final output record.
package assemble

import (
	"fmt"
	"strings"
)

// PageRecord is the final unit of output for one OCR'd page or image.
// Immutable once created; ownership passes to whatever persists it.
type PageRecord struct {
	// Content is the markdown text including the page header.
	Content string `json:"content"`

	// PageNumber is 1-indexed for PDF pages, nil for standalone images.
	PageNumber *int `json:"page_number,omitempty"`

	// ImageFormat is the source image codec, or "png" for rasterized
	// PDF pages.
	ImageFormat string `json:"image_format"`

	// AverageConfidence is the mean detection confidence, nil when the
	// engine does not report one.
	AverageConfidence *float64 `json:"average_confidence,omitempty"`
}

// PageRecordInput carries the pieces assembled into a PageRecord.
type PageRecordInput struct {
	Text              string
	PageIndex         *int // zero-indexed; nil for standalone images
	ImageFormat       string
	AverageConfidence *float64
}

// Page builds the PageRecord for a reconstructed page. The body text is
// post-processed, then prefixed with a page header.
func Page(in PageRecordInput) PageRecord {
	body := PostProcess(in.Text)

	rec := PageRecord{
		Content:           Markdown(body, in.PageIndex),
		ImageFormat:       in.ImageFormat,
		AverageConfidence: in.AverageConfidence,
	}
	if in.PageIndex != nil {
		n := *in.PageIndex + 1
		rec.PageNumber = &n
	}
	return rec
}

// Markdown prepends the page header to the reconstructed body. PDF
// pages get a 1-indexed page marker; standalone images get a generic
// heading.
func Markdown(body string, pageIndex *int) string {
	var sb strings.Builder
	if pageIndex != nil {
		fmt.Fprintf(&sb, "\n\n# [Page %d]:\n\n", *pageIndex+1)
	} else {
		sb.WriteString("# Image Scan Text\n\n")
	}
	sb.WriteString(body)
	return sb.String()
}

// PostProcess normalizes OCR output: each line is trimmed and blank
// lines are dropped, preserving line breaks between the survivors.
func PostProcess(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}
